package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	logger := zerolog.Nop()
	readiness := &Readiness{}
	handler := NewServer(readiness, 0, &logger).Router()

	tests := []struct {
		name   string
		path   string
		ready  bool
		status int
	}{
		{name: "healthz always ok", path: "/healthz", status: http.StatusOK},
		{name: "readyz before polling", path: "/readyz", status: http.StatusServiceUnavailable},
		{name: "readyz after polling", path: "/readyz", ready: true, status: http.StatusOK},
		{name: "metrics exposed", path: "/metrics", status: http.StatusOK},
		{name: "unknown path", path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readiness.SetReady(tt.ready)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.status, rec.Code)
		})
	}
}
