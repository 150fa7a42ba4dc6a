// Package events publishes reservation lifecycle changes to Kafka.
//
// Publishing is best effort: a failure is logged and counted, and never
// undoes the storage write that produced the event.
package events

import (
	"context"
	"time"

	"campusbook/pkg/kafka"
	"campusbook/pkg/logger"
	"campusbook/pkg/model"
)

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationApproved  Type = "reservation.approved"
	ReservationRejected  Type = "reservation.rejected"
	ReservationUpdated   Type = "reservation.updated"
	ReservationCompleted Type = "reservation.completed"

	SchemaVersion = "1"
	Source        = "reservations"
)

type Publisher interface {
	Publish(ctx context.Context, eventType Type, r *model.Reservation, actorID string)
}

// Payload is the JSON body of every reservation event.
type Payload struct {
	ReservationID   string                  `json:"reservation_id"`
	ResourceID      string                  `json:"resource_id"`
	RequesterID     string                  `json:"requester_id"`
	Status          model.ReservationStatus `json:"status"`
	StartTime       time.Time               `json:"start_time"`
	EndTime         time.Time               `json:"end_time"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	ActorID         string                  `json:"actor_id,omitempty"`
	OccurredAt      time.Time               `json:"occurred_at"`
}

func NewPayload(r *model.Reservation, actorID string, at time.Time) Payload {
	return Payload{
		ReservationID:   r.ID,
		ResourceID:      r.ResourceID,
		RequesterID:     r.RequesterID,
		Status:          r.Status,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		RejectionReason: r.RejectionReason,
		ActorID:         actorID,
		OccurredAt:      at.UTC(),
	}
}

// MessagePublisher is the part of *kafka.Producer the publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger, timeout time.Duration) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType Type, r *model.Reservation, actorID string) {
	msg, err := kafka.NewMessage().
		WithKey(r.ID).
		WithValue(NewPayload(r, actorID, p.now())).
		WithEventType(string(eventType)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.Error("Failed to build reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
		return
	}

	// The request context may already be cancelled once the response is
	// written; the event must outlive it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
	}
}

type nopPublisher struct{}

// NopPublisher drops every event. Used when Kafka is disabled.
func NopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Type, *model.Reservation, string) {}
