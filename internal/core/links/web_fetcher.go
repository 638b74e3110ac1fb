package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/platform/config"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

const (
	defaultFetchTimeoutSeconds = 30
	defaultRPS                 = 2
	globalLimiterBurst         = 5
	maxRedirects               = 10
	maxPageSizeMB              = 5
	maxPageSizeBytes           = maxPageSizeMB * 1024 * 1024
	domainLimiterRate          = 1
	domainLimiterBurst         = 2
)

// WebFetcher is the single long-lived HTTP client shared by every component
// that talks to the media platforms.
type WebFetcher struct {
	client         *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
	userAgent      string
	timeout        time.Duration
}

func NewWebFetcher(cfg config.FetchConfig) *WebFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeoutSeconds * time.Second
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never returns an error

	return &WebFetcher{
		client: &http.Client{
			Transport: newDecodingTransport(http.DefaultTransport),
			Jar:       jar,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return relayerrors.ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter:  rate.NewLimiter(rate.Limit(rps), globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
		userAgent:      userAgent,
		timeout:        timeout,
	}
}

// Fetch downloads a page body, bounded by the fetch timeout and a 5MB cap.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	defer observeDuration(observability.OperationPage, time.Now())

	resp, err := f.Open(ctx, rawURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// FinalURL follows redirects for rawURL and returns the URL of the last request.
func (f *WebFetcher) FinalURL(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	defer observeDuration(observability.OperationResolve, time.Now())

	resp, err := f.Open(ctx, rawURL, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return "", nil
	}

	return resp.Request.URL.String(), nil
}

// Open issues a rate-limited GET and returns the response once a success
// status is received. The caller owns the body and bounds its lifetime through ctx.
func (f *WebFetcher) Open(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("global rate limiter wait: %w", err)
	}

	domainLimiter := f.getDomainLimiter(f.extractDomain(rawURL))
	if err := domainLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("domain rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()

		return nil, fmt.Errorf("%w: %d", relayerrors.ErrHTTPStatusNotOK, resp.StatusCode)
	}

	return resp, nil
}

// Client returns the underlying HTTP client for SDKs that issue their own
// requests. Those requests bypass the rate limiters.
func (f *WebFetcher) Client() *http.Client {
	return f.client
}

func (f *WebFetcher) getDomainLimiter(domain string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.domainLimiters[domain]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(domainLimiterRate, domainLimiterBurst)
	f.domainLimiters[domain] = limiter

	return limiter
}

func (f *WebFetcher) extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}

func observeDuration(operation string, start time.Time) {
	observability.FetchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
