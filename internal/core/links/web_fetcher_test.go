package links

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	relayerrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/platform/config"
)

const (
	testDomain      = "example.com"
	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	testHTMLBody    = "<html><body>Test content</body></html>"
	testUserAgent   = "test-agent"
)

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{RPS: 50, Timeout: 5 * time.Second, UserAgent: testUserAgent}
}

func TestNewWebFetcher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.FetchConfig
		wantUA  string
		wantTTL time.Duration
	}{
		{
			name:    "defaults",
			cfg:     config.FetchConfig{},
			wantUA:  config.DefaultUserAgent,
			wantTTL: defaultFetchTimeoutSeconds * time.Second,
		},
		{
			name:    "custom timeout",
			cfg:     config.FetchConfig{RPS: 5, Timeout: 10 * time.Second, UserAgent: "x"},
			wantUA:  "x",
			wantTTL: 10 * time.Second,
		},
		{
			name:    "negative timeout uses default",
			cfg:     config.FetchConfig{RPS: 1, Timeout: -1 * time.Second},
			wantUA:  config.DefaultUserAgent,
			wantTTL: defaultFetchTimeoutSeconds * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewWebFetcher(tt.cfg)

			require.NotNil(t, fetcher.client, "client is nil")
			require.NotNil(t, fetcher.client.Jar, "cookie jar is nil")
			require.NotNil(t, fetcher.globalLimiter, "globalLimiter is nil")
			require.NotNil(t, fetcher.domainLimiters, "domainLimiters is nil")
			require.Equal(t, tt.wantUA, fetcher.userAgent)
			require.Equal(t, tt.wantTTL, fetcher.timeout)
		})
	}
}

func TestWebFetcherExtractDomain(t *testing.T) {
	fetcher := NewWebFetcher(testFetchConfig())

	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{name: "simple domain", rawURL: "https://example.com/page", want: "example.com"},
		{name: "domain with subdomain", rawURL: "https://i.pinimg.com/originals/a.jpg", want: "i.pinimg.com"},
		{name: "uppercase domain normalized", rawURL: "https://PIN.IT/abc", want: "pin.it"},
		{name: "invalid URL", rawURL: "://bad", want: ""},
		{name: "empty URL", rawURL: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fetcher.extractDomain(tt.rawURL))
		})
	}
}

func TestWebFetcherGetDomainLimiter(t *testing.T) {
	fetcher := NewWebFetcher(testFetchConfig())

	limiter1 := fetcher.getDomainLimiter(testDomain)
	require.NotNil(t, limiter1)
	require.Same(t, limiter1, fetcher.getDomainLimiter(testDomain))
	require.NotSame(t, limiter1, fetcher.getDomainLimiter("other.com"))
}

func TestWebFetcherFetch(t *testing.T) {
	t.Run("successful fetch sends browser headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(headerUserAgent) != testUserAgent {
				t.Errorf("User-Agent = %q, want %q", r.Header.Get(headerUserAgent), testUserAgent)
			}

			if r.Header.Get(headerAccept) == "" {
				t.Error("Accept header not set")
			}

			_, _ = w.Write([]byte(testHTMLBody))
		}))
		defer server.Close()

		body, err := NewWebFetcher(testFetchConfig()).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, testHTMLBody, string(body))
	})

	t.Run("non-success status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewWebFetcher(testFetchConfig()).Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, relayerrors.ErrHTTPStatusNotOK)
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewWebFetcher(testFetchConfig()).Fetch(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("timeout is a fetch failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := testFetchConfig()
		cfg.Timeout = 20 * time.Millisecond

		_, err := NewWebFetcher(cfg).Fetch(context.Background(), server.URL)
		require.Error(t, err)
		require.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewWebFetcher(testFetchConfig()).Fetch(context.Background(), "://invalid-url")
		require.Error(t, err)
	})
}

func TestWebFetcherDecodesCompressedBodies(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		encode   func(t *testing.T, data []byte) []byte
	}{
		{
			name:     "gzip",
			encoding: "gzip",
			encode: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				zw := gzip.NewWriter(&buf)
				_, err := zw.Write(data)
				require.NoError(t, err)
				require.NoError(t, zw.Close())

				return buf.Bytes()
			},
		},
		{
			name:     "deflate",
			encoding: "deflate",
			encode: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				zw := zlib.NewWriter(&buf)
				_, err := zw.Write(data)
				require.NoError(t, err)
				require.NoError(t, zw.Close())

				return buf.Bytes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := tt.encode(t, []byte(testHTMLBody))

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Contains(t, r.Header.Get("Accept-Encoding"), tt.encoding)
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(payload)
			}))
			defer server.Close()

			body, err := NewWebFetcher(testFetchConfig()).Fetch(context.Background(), server.URL)
			require.NoError(t, err)
			require.Equal(t, testHTMLBody, string(body))
		})
	}
}

func TestWebFetcherFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hop", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pin/5551234/", http.StatusFound)
	})
	mux.HandleFunc("/pin/5551234/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testHTMLBody))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	finalURL, err := NewWebFetcher(testFetchConfig()).FinalURL(context.Background(), server.URL+"/short")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/pin/5551234/", finalURL)
}

func TestWebFetcherRedirectLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewWebFetcher(testFetchConfig()).Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, relayerrors.ErrTooManyRedirects)
}
