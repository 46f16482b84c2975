// Package metrics holds the Prometheus collectors for backend calls and
// optimistic mutations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts backend calls by operation and status code
	// ("0" when no response was received).
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_api_requests_total",
			Help: "Total number of backend API requests by operation and status",
		},
		[]string{"operation", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CredentialClearsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_credential_clears_total",
			Help: "Times credentials were cleared after an unauthenticated response",
		},
	)

	OptimisticRollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_optimistic_rollbacks_total",
			Help: "Optimistic task mutations rolled back after a failed request",
		},
		[]string{"operation"},
	)

	SessionResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_session_resolutions_total",
			Help: "Session fetches by terminal state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(CredentialClearsTotal)
	prometheus.MustRegister(OptimisticRollbacksTotal)
	prometheus.MustRegister(SessionResolutionsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation's duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time on an observer.
func (t *Timer) ObserveDuration(o prometheus.Observer) {
	o.Observe(t.Duration().Seconds())
}
