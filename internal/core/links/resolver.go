package links

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
)

const logKeyURL = "url"

// ShortLinkPrefix is the prefix of Pinterest short links.
const ShortLinkPrefix = "https://pin.it"

// Recognized link shapes, tried in order: short link first, then canonical post.
var (
	shortLinkPattern     = regexp.MustCompile(`https://pin\.it/[A-Za-z0-9]+`)
	canonicalLinkPattern = regexp.MustCompile(`https://[\w\.]+/pin/\d+/`)
)

// RedirectFollower returns the URL a request ends up at after redirects.
type RedirectFollower interface {
	FinalURL(ctx context.Context, rawURL string) (string, error)
}

// Resolver turns user text into a canonical Pinterest post URL.
type Resolver struct {
	follower RedirectFollower
	logger   *zerolog.Logger
}

func NewResolver(follower RedirectFollower, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		follower: follower,
		logger:   logger,
	}
}

// IsShortLink reports whether text begins with the short-link prefix.
func IsShortLink(text string) bool {
	return strings.HasPrefix(text, ShortLinkPrefix)
}

// ExtractValidLink returns the first recognized link shape in text.
// A short link wins over a canonical link when both are present.
func ExtractValidLink(text string) (string, bool) {
	if match := shortLinkPattern.FindString(text); match != "" {
		return match, true
	}

	if match := canonicalLinkPattern.FindString(text); match != "" {
		return match, true
	}

	return "", false
}

func (r *Resolver) IsShortLink(text string) bool {
	return IsShortLink(text)
}

func (r *Resolver) ExtractValidLink(text string) (string, bool) {
	return ExtractValidLink(text)
}

// ResolveShortLink follows redirects from shortURL once, without retries.
func (r *Resolver) ResolveShortLink(ctx context.Context, shortURL string) (string, error) {
	finalURL, err := r.follower.FinalURL(ctx, shortURL)
	if err != nil {
		r.logger.Warn().Err(err).Str(logKeyURL, shortURL).Msg("failed to resolve short link")

		return "", fmt.Errorf("%w: %w", relayerrors.ErrShortLinkUnresolved, err)
	}

	if finalURL == "" {
		return "", relayerrors.ErrShortLinkUnresolved
	}

	r.logger.Debug().Str(logKeyURL, shortURL).Str("resolved", finalURL).Msg("short link resolved")

	return finalURL, nil
}
