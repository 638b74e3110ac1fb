package youtube

import (
	"net/url"
	"strings"
)

const (
	shortHost = "youtu.be"
	watchHost = "www.youtube.com"
)

// NormalizeURL rewrites youtu.be/<id> links to www.youtube.com/watch?v=<id>,
// keeping any other query parameters. Other input is returned trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, shortHost) {
		return raw
	}

	id := strings.Trim(u.Path, "/")
	if id == "" {
		return raw
	}

	query := u.Query()
	query.Set("v", id)

	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}

	return (&url.URL{
		Scheme:   scheme,
		Host:     watchHost,
		Path:     "/watch",
		RawQuery: query.Encode(),
	}).String()
}
