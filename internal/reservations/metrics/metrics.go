package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campusbook"

var (
	once sync.Once

	reservationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_requests_total",
			Help:      "Reservation create/update attempts by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	reservationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_decisions_total",
			Help:      "Approve/reject decisions applied to pending reservations.",
		},
		[]string{"decision"},
	)

	reservationsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_completed_total",
			Help:      "Approved reservations moved to completed, by trigger.",
		},
		[]string{"trigger"},
	)

	lockWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_lock_contention_total",
			Help:      "Lock attempts that found the resource lock held.",
		},
		[]string{"outcome"},
	)

	writeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_write_retries_total",
			Help:      "Check-and-write units retried after a transient storage error.",
		},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_compute_seconds",
			Help:      "Time spent computing a day's availability window.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationRequests,
			reservationDecisions,
			reservationsCompleted,
			lockWaits,
			writeRetries,
			availabilityDuration,
		)
	})
}

func IncRequest(operation, outcome string) {
	reservationRequests.WithLabelValues(operation, outcome).Inc()
}

func IncDecision(decision string) {
	reservationDecisions.WithLabelValues(decision).Inc()
}

func AddCompleted(trigger string, n int) {
	reservationsCompleted.WithLabelValues(trigger).Add(float64(n))
}

func IncLockContention(outcome string) {
	lockWaits.WithLabelValues(outcome).Inc()
}

func IncWriteRetry() {
	writeRetries.Inc()
}

func ObserveAvailability(d time.Duration) {
	availabilityDuration.Observe(d.Seconds())
}
