package kafka_middleware

import (
	"context"
	"sync"
	"time"

	"campusbook/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Messages handed to the producer, by topic, event type and outcome.",
		},
		[]string{"topic", "event_type", "outcome"},
	)

	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campusbook",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Time to publish one message, including retries inside the writer.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

// RegisterMetrics registers producer metrics (idempotent).
func RegisterMetrics() {
	once.Do(func() {
		prometheus.MustRegister(published, publishDuration)
	})
}

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		outcome := "success"
		if err != nil {
			outcome = kafka.ClassifyError(err).String()
		}
		published.WithLabelValues(msg.Topic, msg.GetEventType(), outcome).Inc()
		publishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
		return err
	}
}
