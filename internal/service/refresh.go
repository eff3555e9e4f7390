package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prayer_notifier/internal/config"
	"prayer_notifier/internal/domain"
)

// RefreshService decides when the stored timetable needs re-extracting and
// performs the merge. Failures never touch durable state, so the next tick
// retries from the same position.
type RefreshService struct {
	source    CalendarSource
	extractor ScheduleExtractor
	schedule  ScheduleStore
	state     CalendarStateStore
	txManager TransactionManager
	notifier  Notifier
	clock     Clock
	logger    *slog.Logger
	config    config.RefreshConfig
}

func NewRefreshService(
	source CalendarSource,
	extractor ScheduleExtractor,
	schedule ScheduleStore,
	state CalendarStateStore,
	txManager TransactionManager,
	notifier Notifier,
	clock Clock,
	logger *slog.Logger,
	cfg config.RefreshConfig,
) *RefreshService {
	return &RefreshService{
		source:    source,
		extractor: extractor,
		schedule:  schedule,
		state:     state,
		txManager: txManager,
		notifier:  notifier,
		clock:     clock,
		logger:    logger.With("component", "refresh"),
		config:    cfg,
	}
}

// Refresh runs one refresh attempt. Unless forced, it is a cheap no-op while
// the refresh interval has not elapsed, and it skips extraction entirely when
// the calendar image URL has not changed.
func (s *RefreshService) Refresh(ctx context.Context, force bool) (*domain.RefreshStats, error) {
	startTime := time.Now()
	now := s.clock.Now()

	stats := &domain.RefreshStats{}
	defer func() { stats.Duration = time.Since(startTime) }()

	state, err := s.state.Get(ctx)
	if err != nil {
		stats.Outcome = domain.RefreshFailed
		return stats, fmt.Errorf("load calendar state: %w", err)
	}

	knownDays, err := s.schedule.CountDays(ctx)
	if err != nil {
		stats.Outcome = domain.RefreshFailed
		return stats, fmt.Errorf("count schedule days: %w", err)
	}

	if !force && knownDays > 0 && !state.LastFetchedAt.IsZero() &&
		now.Sub(state.LastFetchedAt) < s.config.Interval {
		stats.Outcome = domain.RefreshSkipped
		stats.Reason = "too_soon"
		s.logger.Debug("refresh skipped",
			"last_fetched_at", state.LastFetchedAt,
			"interval", s.config.Interval,
		)
		return stats, nil
	}

	imageURL, err := s.source.CalendarImageURL(ctx)
	if err != nil {
		stats.Outcome = domain.RefreshFailed
		stats.Reason = "fetch_error"
		return stats, fmt.Errorf("locate calendar image: %w", err)
	}
	stats.ImageURL = imageURL

	if !force && imageURL == state.LastImageURL && knownDays > 0 {
		state.LastFetchedAt = now
		if err := s.state.Update(ctx, state); err != nil {
			stats.Outcome = domain.RefreshFailed
			return stats, fmt.Errorf("update calendar state: %w", err)
		}
		stats.Outcome = domain.RefreshUnchanged
		s.logger.Info("calendar unchanged, extraction skipped", "image_url", imageURL)
		return stats, nil
	}

	image, err := s.source.DownloadImage(ctx, imageURL)
	if err != nil {
		stats.Outcome = domain.RefreshFailed
		stats.Reason = "fetch_error"
		return stats, fmt.Errorf("download calendar image: %w", err)
	}

	schedule, err := s.extractor.Extract(ctx, image)
	if err != nil {
		// State is left untouched so the next tick retries extraction.
		stats.Outcome = domain.RefreshFailed
		stats.Reason = "extract_error"
		return stats, fmt.Errorf("extract schedule: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.schedule.UpsertDays(txCtx, schedule.Days); err != nil {
			return fmt.Errorf("merge schedule days: %w", err)
		}

		state.Label = schedule.Label
		state.LastImageURL = imageURL
		state.LastFetchedAt = now
		if err := s.state.Update(txCtx, state); err != nil {
			return fmt.Errorf("update calendar state: %w", err)
		}

		return nil
	})
	if err != nil {
		stats.Outcome = domain.RefreshFailed
		return stats, err
	}

	stats.Outcome = domain.RefreshUpdated
	stats.NewDays = len(schedule.Days)

	s.logger.Info("schedule updated",
		"label", schedule.Label,
		"days", len(schedule.Days),
		"image_url", imageURL,
	)

	// First load gets a one-shot summary push. Best-effort: a failed summary
	// never fails the refresh.
	if knownDays == 0 {
		if err := s.notifier.SendSummary(ctx, schedule.Label, schedule.Days); err != nil {
			s.logger.Error("failed to send schedule summary", "error", err)
		}
	}

	return stats, nil
}
