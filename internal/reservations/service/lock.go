package service

import (
	"context"
	"errors"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"
	"campusbook/internal/reservations/metrics"
	apperrors "campusbook/pkg/errors"

	"github.com/google/uuid"
)

const (
	lockBackoffInitial = 20 * time.Millisecond
	lockBackoffMax     = 250 * time.Millisecond
)

// withResourceLock runs fn while holding the resource's reservation lock.
// Acquisition is retried with backoff until LockWaitTimeout elapses. fn
// gets a context that expires before the lock's TTL does.
func (s *reservationService) withResourceLock(ctx context.Context, resourceID string, fn func(context.Context) error) error {
	owner := uuid.NewString()
	if err := s.acquireLock(ctx, resourceID, owner); err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		if err := s.locker.Release(releaseCtx, resourceID, owner); err != nil {
			s.cfg.Log.Warn("Failed to release reservation lock",
				"resource_id", resourceID,
				"owner", owner,
				"error", err,
			)
		}
	}()

	holdCtx, cancel := context.WithTimeout(ctx, s.cfg.LockHoldTimeout())
	defer cancel()
	return fn(holdCtx)
}

func (s *reservationService) acquireLock(ctx context.Context, resourceID, owner string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWaitTimeout)
	defer cancel()

	backoff := lockBackoffInitial
	contended := false
	for {
		err := s.locker.TryAcquire(waitCtx, resourceID, owner, s.cfg.LockTTL)
		if err == nil {
			if contended {
				metrics.IncLockContention("acquired")
			}
			return nil
		}

		if waitCtx.Err() == nil && !errors.Is(err, reservationserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to acquire reservation lock",
				"resource_id", resourceID,
				"error", err,
			)
			return apperrors.Internal("Failed to acquire reservation lock", err)
		}
		contended = true

		timer := time.NewTimer(backoff)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return s.lockWaitError(ctx, resourceID)
		case <-timer.C:
		}
		backoff = min(backoff*2, lockBackoffMax)
	}
}

func (s *reservationService) lockWaitError(ctx context.Context, resourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	metrics.IncLockContention("timeout")
	s.cfg.Log.Warn("Timed out waiting for reservation lock",
		"resource_id", resourceID,
		"wait_timeout", s.cfg.LockWaitTimeout,
	)
	return apperrors.Unavailable("Resource").WithDetails(map[string]any{
		"resource_id": resourceID,
		"retryable":   true,
	})
}
