package service

import (
	"context"
	"time"

	"campusbook/internal/reservations/metrics"
	mongotx "campusbook/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

const writeRetryBackoff = 25 * time.Millisecond

// checkAndWrite runs fn in a transaction under the resource lock. The whole
// transaction is retried while it fails with a transient storage error.
func (s *reservationService) checkAndWrite(ctx context.Context, operation, resourceID string, fn func(context.Context) error) error {
	return s.withResourceLock(ctx, resourceID, func(ctx context.Context) error {
		return s.withWriteRetry(ctx, operation, resourceID, func() error {
			return s.repo.ExecuteTransaction(ctx, func(sc mongo.SessionContext) error {
				return fn(sc)
			})
		})
	})
}

func (s *reservationService) withWriteRetry(ctx context.Context, operation, resourceID string, fn func() error) error {
	attempts := max(s.cfg.WriteRetryAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !mongotx.IsTransient(err) || attempt == attempts {
			return err
		}

		metrics.IncWriteRetry()
		s.cfg.Log.Warn("Retrying reservation write after transient error",
			"operation", operation,
			"resource_id", resourceID,
			"attempt", attempt,
			"error", err,
		)

		timer := time.NewTimer(time.Duration(attempt) * writeRetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
