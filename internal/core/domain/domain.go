// Package domain holds the value types shared by the relay components.
package domain

// MediaKind is the kind of asset a chat asked for.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Default file extensions used when the asset response carries no usable content type.
const (
	DefaultPhotoExtension = "jpg"
	DefaultVideoExtension = "mp4"
)

// DefaultExtension returns the fallback extension for the kind.
func (k MediaKind) DefaultExtension() string {
	if k == MediaVideo {
		return DefaultVideoExtension
	}

	return DefaultPhotoExtension
}

// PendingKind is what a chat is expected to send next.
type PendingKind int

const (
	PendingNone PendingKind = iota
	PendingPhotoLink
	PendingVideoLink
	PendingYouTubeLink
)

func (p PendingKind) String() string {
	switch p {
	case PendingPhotoLink:
		return "photo_link"
	case PendingVideoLink:
		return "video_link"
	case PendingYouTubeLink:
		return "youtube_link"
	default:
		return "none"
	}
}

// MediaKind maps a Pinterest pending kind to the media it will produce.
// The second result is false for kinds that are not Pinterest selections.
func (p PendingKind) MediaKind() (MediaKind, bool) {
	switch p {
	case PendingPhotoLink:
		return MediaPhoto, true
	case PendingVideoLink:
		return MediaVideo, true
	default:
		return "", false
	}
}

// Platform names used in callbacks, logs and metrics.
const (
	PlatformPinterest = "pinterest"
	PlatformYouTube   = "youtube"
)

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// SingleColumn lays out buttons one per row.
func SingleColumn(buttons ...Button) Keyboard {
	rows := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}

	return rows
}
