// Package observability provides Prometheus metrics and gin middleware
// for monitoring the tutor service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// AssistantBuckets covers assistant run latencies from 100ms to 2 minutes.
var AssistantBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Interaction outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeMissing       = "missing"
	OutcomeInternalError = "internal_error"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_request_duration_seconds",
			Help:    "Request duration",
			Buckets: AssistantBuckets,
		},
		[]string{"method", "route"},
	)

	// InteractionsTotal counts Interact calls by outcome.
	InteractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_interactions_total",
			Help: "Interactions by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamDuration records assistant service latency by operation.
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_upstream_duration_seconds",
			Help:    "Assistant service latency",
			Buckets: AssistantBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InteractionsTotal,
		UpstreamDuration,
	)
}
