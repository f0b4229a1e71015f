// Package metrics defines the Prometheus collectors for the question
// answering service and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	QuestionsTotal     *prometheus.CounterVec
	RetrievalLatency   *prometheus.HistogramVec
	SynthesisLatency   prometheus.Histogram
	FusedResultsCount  prometheus.Histogram
	ConfidenceTotal    *prometheus.CounterVec
	IndexedMessages    prometheus.Gauge
	IndexBuildsTotal   *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
}

// New creates and registers all collectors on a dedicated registry, so
// tests can construct Metrics repeatedly without duplicate-registration
// panics.
func New() (*Metrics, *prometheus.Registry) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurora_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		QuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_questions_total",
				Help: "Total questions answered by outcome (ok, degraded, error).",
			},
			[]string{"outcome"},
		),
		RetrievalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurora_retrieval_latency_seconds",
				Help:    "Hybrid retrieval latency in seconds by leg (dense, lexical, fused).",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"leg"},
		),
		SynthesisLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aurora_synthesis_latency_seconds",
				Help:    "Answer synthesis latency in seconds.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		FusedResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aurora_fused_results_count",
				Help:    "Number of fused results per question.",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),
		ConfidenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_confidence_total",
				Help: "Answer confidence labels by level.",
			},
			[]string{"level"},
		),
		IndexedMessages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_indexed_messages",
				Help: "Number of messages in the dense index.",
			},
		),
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_index_builds_total",
				Help: "Total index builds by status (ok, skipped, error).",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aurora_index_build_duration_seconds",
				Help:    "Index build duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.QuestionsTotal,
		m.RetrievalLatency,
		m.SynthesisLatency,
		m.FusedResultsCount,
		m.ConfidenceTotal,
		m.IndexedMessages,
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
	)

	return m, registry
}

// Handler returns the scrape handler for the given registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
