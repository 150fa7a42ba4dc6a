package service

import (
	"context"
	"time"

	"campusbook/pkg/logger"
	"campusbook/pkg/model"
)

type expiredCompleter interface {
	CompleteExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error)
}

// Sweeper completes approved reservations once their end time has passed.
type Sweeper struct {
	service  expiredCompleter
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewSweeper(service expiredCompleter, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start blocks until ctx is done. A non-positive interval disables it.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("Completion sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Completion sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Completion sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	completed, err := s.service.CompleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error("Failed to complete ended reservations",
			"completed", len(completed),
			"error", err,
		)
		return
	}

	for _, r := range completed {
		s.log.Info("Reservation completed by sweeper",
			"id", r.ID,
			"resource_id", r.ResourceID,
			"end_time", r.EndTime,
		)
	}
}
