package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"campusbook/pkg/kafka"
	"campusbook/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testMessage(t *testing.T) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("res-1").
		WithValue(map[string]string{"id": "res-1"}).
		WithEventType("reservation.approved").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	msg.Topic = "reservations.events"
	return msg
}

func TestLoggingProducerMiddleware_PassesThrough(t *testing.T) {
	mw := LoggingProducerMiddleware(logger.Discard())
	wantErr := errors.New("connection refused")

	err := mw(context.Background(), testMessage(t), func(ctx context.Context, msg kafka.Message) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected error to pass through, got %v", err)
	}
}

func TestMetricsProducerMiddleware_CountsOutcomes(t *testing.T) {
	mw := MetricsProducerMiddleware()
	msg := testMessage(t)

	before := testutil.ToFloat64(published.WithLabelValues(msg.Topic, msg.GetEventType(), "transient"))
	_ = mw(context.Background(), msg, func(ctx context.Context, msg kafka.Message) error {
		return errors.New("dial tcp: i/o timeout")
	})
	after := testutil.ToFloat64(published.WithLabelValues(msg.Topic, msg.GetEventType(), "transient"))

	if after-before != 1 {
		t.Errorf("expected transient counter to grow by 1, got %v", after-before)
	}
}
