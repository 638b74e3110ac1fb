package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Readiness is flipped by the bot once its polling loop is running.
type Readiness struct {
	ready atomic.Bool
}

func (r *Readiness) SetReady(v bool) {
	r.ready.Store(v)
}

func (r *Readiness) Ready() bool {
	return r.ready.Load()
}

type Server struct {
	readiness *Readiness
	port      int
	logger    *zerolog.Logger
}

func NewServer(readiness *Readiness, port int, logger *zerolog.Logger) *Server {
	return &Server{
		readiness: readiness,
		port:      port,
		logger:    logger,
	}
}

// Router exposes /healthz, /readyz and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.readiness.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprint(w, "polling not started")

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("Health check server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
