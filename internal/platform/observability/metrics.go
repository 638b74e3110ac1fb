package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels.
const (
	StatusSuccess          = "success"
	StatusResolveFailed    = "resolve_failed"
	StatusInvalidLink      = "invalid_link"
	StatusPipelineFailed   = "pipeline_failed"
	StatusNoSelection      = "no_selection"
	StatusInvalidSelection = "invalid_selection"
)

// Fetch operation labels.
const (
	OperationPage    = "page"
	OperationResolve = "resolve"
	OperationAsset   = "asset"
)

var (
	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "The total number of media relay requests by outcome",
	}, []string{"platform", "kind", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_fetch_duration_seconds",
		Help:    "Duration of outgoing HTTP fetches",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"operation"})

	DownloadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_downloaded_bytes_total",
		Help: "Bytes written to temporary files by media kind",
	}, []string{"kind"})

	PendingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_pending_sessions",
		Help: "Number of chats waiting to send a link",
	})

	UpdatesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_updates_total",
		Help: "Telegram updates received by type",
	}, []string{"type"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_delivery_failures_total",
		Help: "Outgoing Telegram messages rejected by the transport",
	}, []string{"method"})

	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_poll_errors_total",
		Help: "Failed update polling attempts",
	})
)
