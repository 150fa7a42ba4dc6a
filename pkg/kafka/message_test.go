package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("res-1").
		WithValue(map[string]string{"status": "pending"}).
		WithEventType("reservation.created").
		WithSource("reservations").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.GetEventType() != "reservation.created" {
		t.Errorf("event type = %q", msg.GetEventType())
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}

	var payload map[string]string
	if err := msg.DecodeValue(&payload); err != nil || payload["status"] != "pending" {
		t.Errorf("payload = %v, err = %v", payload, err)
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestMessage_Validate(t *testing.T) {
	if err := (&Message{Value: []byte("x")}).Validate(); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := (&Message{Key: "k"}).Validate(); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeUnknown},
		{errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{fmt.Errorf("write: %w", context.DeadlineExceeded), ErrorTypeTransient},
		{errors.New("[3] Unknown Topic Or Partition"), ErrorTypePermanent},
		{ErrProducerClosed, ErrorTypePermanent},
		{fmt.Errorf("produce: %w", kafkago.LeaderNotAvailable), ErrorTypeTransient},
		{kafkago.MessageSizeTooLarge, ErrorTypePermanent},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
