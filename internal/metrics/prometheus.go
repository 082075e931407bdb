package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Monitoring cycle metrics
	CycleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_cycle_runs_total",
			Help: "Total number of monitoring cycles",
		},
		[]string{"wallet", "status"}, // status: success|error
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Monitoring cycle duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	PositionsTracked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_positions_tracked",
			Help: "Current number of tracked positions",
		},
		[]string{"wallet"},
	)

	PositionsAtRisk = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_positions_at_risk",
			Help: "Current number of positions below the alert threshold",
		},
		[]string{"wallet"},
	)

	AlertHit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_alert_threshold_hit",
			Help: "Whether any position sits below the alert threshold (1/0)",
		},
		[]string{"wallet"},
	)

	// Protocol data source metrics
	ProtocolFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_protocol_fetch_failures_total",
			Help: "Total number of failed protocol fetches (downgraded to zero positions)",
		},
		[]string{"protocol"},
	)

	ProtocolFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_protocol_fetch_duration_seconds",
			Help:    "Protocol fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"protocol"},
	)

	// Price oracle metrics
	PriceLookupFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_price_lookup_failures_total",
			Help: "Total number of failed price lookups (downgraded to zero value)",
		},
		[]string{"asset"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)
)

// Register registers all metrics with the default registry
func Register() {
	prometheus.MustRegister(
		CycleRuns,
		CycleDuration,
		PositionsTracked,
		PositionsAtRisk,
		AlertHit,
		ProtocolFetchFailures,
		ProtocolFetchDuration,
		PriceLookupFailures,
		WorkerExecutions,
		WorkerDuration,
	)
}

// Handler returns the HTTP handler exposing the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer creates an HTTP server serving /metrics on addr
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
