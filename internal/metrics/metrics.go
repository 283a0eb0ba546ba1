// Package metrics exposes Prometheus counters for the Slack request pipeline.
//
// All collectors are registered against the default registry and served on the
// side-channel server returned by NewServer:
//
//	GET http://<host>:<METRICS_PORT>/metrics
//
// Labels are bounded: kind is a RequestKind, outcome is one of the Outcome
// values and code is an authentication ErrorCode. Slack ids never become labels.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcomes used as the "outcome" label.
const (
	OutcomeHandled      = "handled"
	OutcomeRejected     = "rejected"
	OutcomeHandlerError = "handler_error"
)

// PipelineRequestsTotal counts every request that finished the pipeline.
//
// Example PromQL:
//   - Rejection rate: sum(rate(standup_pipeline_requests_total{outcome="rejected"}[5m])) / sum(rate(standup_pipeline_requests_total[5m]))
//
// PipelineDuration covers sanitize through handler completion.
var (
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standup_pipeline_requests_total",
			Help: "Total number of Slack requests processed by the pipeline, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "standup_pipeline_duration_seconds",
			Help:    "Histogram of pipeline latencies, by request kind.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)
)

// AuthFailuresTotal counts rejected authentications by error code. A rise in
// SYSTEM_ERROR usually means the database is unreachable.
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "standup_auth_failures_total",
		Help: "Total number of failed authentications, by error code.",
	},
	[]string{"code"},
)

var HandlerErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "standup_handler_errors_total",
		Help: "Total number of business handler errors and panics, by request kind.",
	},
	[]string{"kind"},
)

// ActivityProcessedTotal is recorded by the activity worker. Status is
// "stored", "requeued" or "dead_lettered".
var ActivityProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "standup_activity_processed_total",
		Help: "Total number of activity stream messages handled by the worker, by status.",
	},
	[]string{"status"},
)

func ObservePipeline(kind, outcome string, elapsed time.Duration) {
	PipelineRequestsTotal.WithLabelValues(kind, outcome).Inc()
	PipelineDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// NewServer returns the side-channel metrics server. It is not mounted on the
// gin router, so the scrape path never reaches the public Slack endpoints.
func NewServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
