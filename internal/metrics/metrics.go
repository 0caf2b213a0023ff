package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contest_attempts_started_total",
			Help: "Attempts created on first resolve",
		},
	)

	AttemptsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_attempts_completed_total",
			Help: "Attempts moved to completed, by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contest_submission_score",
			Help:    "Total score of graded submissions",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)
)

const (
	OutcomeSubmitted = "submitted"
	OutcomeExpired   = "expired"
)

// Register adds every collector to reg. Counters work unregistered, so tests
// never need to call it.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		AttemptsStarted, AttemptsCompleted, SubmissionScore, RequestCounter, RequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request. endpoint is the route
// pattern, never the raw path, to keep label cardinality bounded.
func ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}
