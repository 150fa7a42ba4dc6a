package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campusbook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// RegisterMetrics registers the HTTP collectors (idempotent).
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration)
	})
}

// Metrics records request counts and latency. Paths are left out of the
// labels since they carry ids.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)

			next.ServeHTTP(rec, r)

			httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.Status())).Inc()
			httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
