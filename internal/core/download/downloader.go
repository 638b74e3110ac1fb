// Package download stores remote media assets in uniquely named temp files.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/platform/config"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

const (
	filePerm  = 0o600
	maxExtLen = 8

	// AssetFilePrefix marks files the downloader owns in a shared temp dir.
	AssetFilePrefix = "relay_"
)

// Opener issues a GET with browser-like headers and fails on non-2xx statuses.
type Opener interface {
	Open(ctx context.Context, rawURL, accept string) (*http.Response, error)
}

// Asset is a downloaded file owned by the caller that created it.
type Asset struct {
	Path        string
	Extension   string
	ContentType string
	Size        int64
}

// Remove deletes the file. The error is meant for logging only.
func (a *Asset) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}

	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove asset %s: %w", a.Path, err)
	}

	return nil
}

type Downloader struct {
	opener   Opener
	dir      string
	timeout  time.Duration
	maxBytes int64
	logger   *zerolog.Logger
}

func NewDownloader(opener Opener, cfg config.DownloadConfig, logger *zerolog.Logger) *Downloader {
	dir := cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	return &Downloader{
		opener:   opener,
		dir:      dir,
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// FetchAndStore downloads assetURL into a new temp file. The extension comes
// from the response content type, or the kind's default when that is unusable.
// No retries: any transport error or non-2xx status fails the call.
func (d *Downloader) FetchAndStore(ctx context.Context, assetURL string, kind domain.MediaKind) (*Asset, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		observability.FetchDuration.WithLabelValues(observability.OperationAsset).Observe(time.Since(start).Seconds())
	}()

	resp, err := d.opener.Open(ctx, assetURL, acceptFor(kind))
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes announced", relayerrors.ErrBodyTooLarge, resp.ContentLength)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := ExtensionFromContentType(contentType, kind.DefaultExtension())

	asset, err := d.store(resp.Body, kind, ext)
	if err != nil {
		return nil, err
	}

	asset.ContentType = contentType

	d.logger.Debug().
		Str("url", assetURL).
		Str("path", asset.Path).
		Int64("size", asset.Size).
		Msg("asset stored")

	return asset, nil
}

// StoreReader writes an already opened stream into a new temp file.
func (d *Downloader) StoreReader(r io.Reader, kind domain.MediaKind, ext string) (*Asset, error) {
	if ext == "" {
		ext = kind.DefaultExtension()
	}

	return d.store(r, kind, ext)
}

func (d *Downloader) store(r io.Reader, kind domain.MediaKind, ext string) (*Asset, error) {
	path := filepath.Join(d.dir, fmt.Sprintf("%s%s_%s.%s", AssetFilePrefix, kind, uuid.NewString(), ext))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}

	src := r
	if d.maxBytes > 0 {
		src = io.LimitReader(r, d.maxBytes+1)
	}

	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("write asset file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close asset file: %w", closeErr)
	case d.maxBytes > 0 && written > d.maxBytes:
		err = fmt.Errorf("%w: limit %d bytes", relayerrors.ErrBodyTooLarge, d.maxBytes)
	}

	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			d.logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove partial asset")
		}

		return nil, err
	}

	observability.DownloadedBytes.WithLabelValues(string(kind)).Add(float64(written))

	return &Asset{
		Path:      path,
		Extension: ext,
		Size:      written,
	}, nil
}

// ExtensionFromContentType returns the media subtype of contentType
// (image/png gives png), or fallback when the header is missing, malformed
// or carries a subtype that is not a plain file extension.
func ExtensionFromContentType(contentType, fallback string) string {
	if contentType == "" {
		return fallback
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fallback
	}

	_, subtype, found := strings.Cut(mediaType, "/")
	if !found {
		return fallback
	}

	// image/svg+xml
	subtype, _, _ = strings.Cut(subtype, "+")

	if !isPlainExtension(subtype) {
		return fallback
	}

	return subtype
}

func isPlainExtension(s string) bool {
	if s == "" || len(s) > maxExtLen {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}

	return true
}

func acceptFor(kind domain.MediaKind) string {
	if kind == domain.MediaVideo {
		return "video/mp4,video/*;q=0.9,*/*;q=0.8"
	}

	return "image/avif,image/webp,image/*,*/*;q=0.8"
}

// SweepStale removes asset files left in the temp dir for longer than maxAge,
// e.g. after a crash between download and delivery. Only files carrying
// AssetFilePrefix are touched. It returns how many were removed.
func (d *Downloader) SweepStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, kind := range []domain.MediaKind{domain.MediaPhoto, domain.MediaVideo} {
		matches, err := filepath.Glob(filepath.Join(d.dir, AssetFilePrefix+string(kind)+"_*"))
		if err != nil {
			continue
		}

		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
				continue
			}

			if err := os.Remove(path); err != nil {
				d.logger.Warn().Err(err).Str("path", path).Msg("failed to sweep stale asset")

				continue
			}

			removed++
		}
	}

	if removed > 0 {
		d.logger.Info().Int("removed", removed).Msg("swept stale assets")
	}

	return removed
}
