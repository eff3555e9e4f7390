package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"prayer_notifier/internal/domain"
)

// Refresher decides whether the stored timetable needs re-extracting.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (*domain.RefreshStats, error)
}

// Notifier delivers whatever prayers are due at the given instant.
type Notifier interface {
	Tick(ctx context.Context, now time.Time) ([]domain.Notification, error)
}

type Clock interface {
	Now() time.Time
}

// Scheduler fires one pass per minute, aligned to the minute boundary so a
// prayer starting at HH:MM is announced at HH:MM, not up to a minute late.
type Scheduler struct {
	refresher Refresher
	notifier  Notifier
	clock     Clock
	logger    *slog.Logger
}

func NewScheduler(refresher Refresher, notifier Notifier, clock Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started")

	s.runPass(ctx)

	for {
		now := s.clock.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	stats, err := s.refresher.Refresh(passCtx, false)
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
	} else if stats.Outcome != domain.RefreshSkipped {
		s.logger.Info("refresh completed",
			"outcome", stats.Outcome,
			"days", stats.NewDays,
			"duration", stats.Duration,
		)
	}

	delivered, err := s.notifier.Tick(passCtx, s.clock.Now())
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("notification tick failed", "error", err)
	}
	if len(delivered) > 0 {
		s.logger.Info("notifications delivered", "count", len(delivered))
	}
}
