package youtube

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"

	yt "github.com/kkdai/youtube/v2"

	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
)

const defaultContainer = "mp4"

// Stream is one downloadable format carrying both video and audio.
type Stream struct {
	Itag      int
	Quality   string
	Container string
	Size      int64
	Height    int
	Bitrate   int
}

// Label renders the stream as shown on its selection button.
func (s Stream) Label() string {
	return fmt.Sprintf("%s - %s (%.1f MB)", s.Quality, s.Container, float64(s.Size)/bytesPerMB)
}

const bytesPerMB = 1024 * 1024

// Listing is the set of streams offered to a chat for one video.
type Listing struct {
	VideoID string
	Title   string
	Streams []Stream

	video *yt.Video
}

// ClientSource reads video manifests and streams with github.com/kkdai/youtube.
type ClientSource struct {
	client *yt.Client
}

func NewClientSource(httpClient *http.Client) *ClientSource {
	return &ClientSource{client: &yt.Client{HTTPClient: httpClient}}
}

// List fetches the manifest of videoURL and returns its muxed streams,
// best quality first.
func (s *ClientSource) List(ctx context.Context, videoURL string) (*Listing, error) {
	video, err := s.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("get video manifest: %w", err)
	}

	streams := muxedStreams(video.Formats)
	if len(streams) == 0 {
		return nil, relayerrors.ErrNoFormats
	}

	return &Listing{
		VideoID: video.ID,
		Title:   video.Title,
		Streams: streams,
		video:   video,
	}, nil
}

// Open starts streaming the given stream of a listed video.
func (s *ClientSource) Open(ctx context.Context, listing *Listing, stream Stream) (io.ReadCloser, error) {
	if listing == nil || listing.video == nil {
		return nil, relayerrors.ErrInvalidSelection
	}

	format := listing.video.Formats.Itag(stream.Itag)
	if len(format) == 0 {
		return nil, fmt.Errorf("itag %d: %w", stream.Itag, relayerrors.ErrInvalidSelection)
	}

	body, _, err := s.client.GetStreamContext(ctx, listing.video, &format[0])
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return body, nil
}

func muxedStreams(formats yt.FormatList) []Stream {
	streams := make([]Stream, 0, len(formats))

	for _, f := range formats.WithAudioChannels() {
		if f.QualityLabel == "" || !strings.HasPrefix(f.MimeType, "video/") {
			continue
		}

		streams = append(streams, Stream{
			Itag:      f.ItagNo,
			Quality:   f.QualityLabel,
			Container: containerOf(f.MimeType),
			Size:      f.ContentLength,
			Height:    f.Height,
			Bitrate:   f.Bitrate,
		})
	}

	sort.SliceStable(streams, func(i, j int) bool {
		if streams[i].Height != streams[j].Height {
			return streams[i].Height > streams[j].Height
		}

		return streams[i].Bitrate > streams[j].Bitrate
	})

	return streams
}

// containerOf maps "video/mp4; codecs=..." to "mp4".
func containerOf(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return defaultContainer
	}

	_, subtype, found := strings.Cut(mediaType, "/")
	if !found || subtype == "" {
		return defaultContainer
	}

	return subtype
}
