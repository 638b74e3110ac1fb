// Package youtube implements the video-quality workflow: the chat sends a
// video link, picks one of the offered muxed qualities and receives the file.
package youtube

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/core/download"
	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/core/session"
	"github.com/lueurxax/media-relay-bot/internal/platform/locale"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

// Callback data understood by the workflow.
const (
	CallbackMenu          = "youtube"
	CallbackQualityPrefix = "yt:"
)

const (
	logFieldChatID = "chat_id"
	logFieldURL    = "url"
)

const (
	defaultListTimeout     = 30 * time.Second
	defaultDownloadTimeout = 5 * time.Minute
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error
	SendVideo(ctx context.Context, chatID int64, path, caption string) error
}

// Source lists and opens video streams.
type Source interface {
	List(ctx context.Context, videoURL string) (*Listing, error)
	Open(ctx context.Context, listing *Listing, stream Stream) (io.ReadCloser, error)
}

type AssetWriter interface {
	StoreReader(r io.Reader, kind domain.MediaKind, ext string) (*download.Asset, error)
}

type PendingTracker interface {
	SetPending(chatID int64, kind domain.PendingKind)
	ClearPending(chatID int64)
}

// Deps bundles the workflow's collaborators. ListTimeout bounds the manifest
// fetch and DownloadTimeout one stream download; zero selects the defaults.
type Deps struct {
	Sender          Sender
	Source          Source
	Assets          AssetWriter
	Sessions        PendingTracker
	ListTimeout     time.Duration
	DownloadTimeout time.Duration
}

type Workflow struct {
	sender      Sender
	source      Source
	assets      AssetWriter
	sessions    PendingTracker
	listTimeout time.Duration
	timeout     time.Duration
	listings    *session.Store[int64, *Listing]
	texts       *locale.Texts
	logger      *zerolog.Logger
}

func NewWorkflow(deps Deps, texts *locale.Texts, logger *zerolog.Logger) *Workflow {
	return &Workflow{
		sender:      deps.Sender,
		source:      deps.Source,
		assets:      deps.Assets,
		sessions:    deps.Sessions,
		listTimeout: orDefault(deps.ListTimeout, defaultListTimeout),
		timeout:     orDefault(deps.DownloadTimeout, defaultDownloadTimeout),
		listings:    session.NewStore[int64, *Listing](),
		texts:       texts,
		logger:      logger,
	}
}

// Prompt asks the chat for a video link.
func (w *Workflow) Prompt(ctx context.Context, chatID int64) {
	w.reply(ctx, chatID, locale.PromptYouTubeLink)
	w.sessions.SetPending(chatID, domain.PendingYouTubeLink)
}

// HandleMessage lists the qualities of the linked video as buttons.
// The pending selection is consumed.
func (w *Workflow) HandleMessage(ctx context.Context, chatID int64, text string) {
	defer w.sessions.ClearPending(chatID)

	videoURL := NormalizeURL(text)

	listCtx, cancel := context.WithTimeout(ctx, w.listTimeout)
	listing, err := w.source.List(listCtx, videoURL)

	cancel()

	if err != nil {
		if relayerrors.Is(err, relayerrors.ErrNoFormats) {
			w.count(observability.StatusPipelineFailed)
			w.reply(ctx, chatID, locale.NoQualityFound)

			return
		}

		w.logger.Error().Err(err).Int64(logFieldChatID, chatID).Str(logFieldURL, videoURL).Msg("failed to list video qualities")
		w.count(observability.StatusPipelineFailed)
		w.reply(ctx, chatID, locale.YouTubeListFailed)

		return
	}

	w.listings.Set(chatID, listing)

	buttons := make([]domain.Button, 0, len(listing.Streams))
	for i, stream := range listing.Streams {
		buttons = append(buttons, domain.Button{
			Text: stream.Label(),
			Data: CallbackQualityPrefix + strconv.Itoa(i),
		})
	}

	if err := w.sender.SendMenu(ctx, chatID, w.texts.Get(locale.ChooseQuality), domain.SingleColumn(buttons...)); err != nil {
		w.logger.Error().Err(err).Int64(logFieldChatID, chatID).Msg("failed to send quality menu")
	}
}

// HandleCallback downloads and sends the quality picked from the last listing.
func (w *Workflow) HandleCallback(ctx context.Context, chatID int64, data string) {
	listing, stream, err := w.selection(chatID, data)
	if err != nil {
		w.logger.Info().Err(err).Int64(logFieldChatID, chatID).Str("callback", data).Msg("invalid quality selection")
		w.count(observability.StatusInvalidSelection)
		w.reply(ctx, chatID, locale.InvalidQuality)

		return
	}

	// One attempt per listing.
	w.listings.Delete(chatID)

	if err := w.sender.SendText(ctx, chatID, w.texts.Get(locale.DownloadingQuality, stream.Quality)); err != nil {
		w.logger.Error().Err(err).Int64(logFieldChatID, chatID).Msg("failed to send progress message")
	}

	if err := w.deliver(ctx, chatID, listing, stream); err != nil {
		w.logger.Error().Err(err).
			Int64(logFieldChatID, chatID).
			Str("video_id", listing.VideoID).
			Int("itag", stream.Itag).
			Msg("youtube relay failed")
		w.count(observability.StatusPipelineFailed)
		w.reply(ctx, chatID, locale.YouTubeFailed)

		return
	}

	w.count(observability.StatusSuccess)
}

func (w *Workflow) selection(chatID int64, data string) (*Listing, Stream, error) {
	raw, ok := strings.CutPrefix(data, CallbackQualityPrefix)
	if !ok {
		return nil, Stream{}, relayerrors.ErrInvalidSelection
	}

	index, err := strconv.Atoi(raw)
	if err != nil {
		return nil, Stream{}, fmt.Errorf("%w: %q", relayerrors.ErrInvalidSelection, raw)
	}

	listing, ok := w.listings.Get(chatID)
	if !ok || index < 0 || index >= len(listing.Streams) {
		return nil, Stream{}, fmt.Errorf("%w: index %d", relayerrors.ErrInvalidSelection, index)
	}

	return listing, listing.Streams[index], nil
}

func (w *Workflow) deliver(ctx context.Context, chatID int64, listing *Listing, stream Stream) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := w.source.Open(ctx, listing, stream)
	if err != nil {
		return err
	}

	asset, err := w.assets.StoreReader(body, domain.MediaVideo, stream.Container)

	if closeErr := body.Close(); closeErr != nil {
		w.logger.Debug().Err(closeErr).Msg("failed to close video stream")
	}

	if err != nil {
		return fmt.Errorf("store video: %w", err)
	}

	defer func() {
		if err := asset.Remove(); err != nil {
			w.logger.Warn().Err(err).Str("path", asset.Path).Msg("failed to remove temporary video")
		}
	}()

	if err := w.sender.SendVideo(ctx, chatID, asset.Path, w.texts.Get(locale.QualityReady, stream.Quality)); err != nil {
		return fmt.Errorf("send video: %w", err)
	}

	return nil
}

func (w *Workflow) reply(ctx context.Context, chatID int64, key locale.Key) {
	if err := w.sender.SendText(ctx, chatID, w.texts.Get(key)); err != nil {
		w.logger.Error().Err(err).Int64(logFieldChatID, chatID).Str("text_key", string(key)).Msg("failed to send reply")
	}
}

func (w *Workflow) count(status string) {
	observability.RelayRequests.WithLabelValues(domain.PlatformYouTube, string(domain.MediaVideo), status).Inc()
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}
