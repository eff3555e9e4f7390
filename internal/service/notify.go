package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prayer_notifier/internal/config"
	"prayer_notifier/internal/domain"
)

const dateLayout = "2006-01-02"

// NotifyService evaluates "what is due now" against today's timetable and
// delivers each due prayer exactly once. Prayers are always walked in
// canonical order, so several prayers missed during downtime still go out
// one by one, oldest first.
type NotifyService struct {
	schedule  ScheduleStore
	sentLog   SentLog
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
	config    config.NotifyConfig

	lastUnavailable time.Time
}

func NewNotifyService(
	schedule ScheduleStore,
	sentLog SentLog,
	notifier Notifier,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.NotifyConfig,
) *NotifyService {
	return &NotifyService{
		schedule:  schedule,
		sentLog:   sentLog,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With("component", "notify"),
		config:    cfg,
	}
}

// Tick runs one evaluation pass for the instant `now` (already in the civil
// timezone). It returns the notifications delivered during this pass.
func (s *NotifyService) Tick(ctx context.Context, now time.Time) ([]domain.Notification, error) {
	today := now.Format(dateLayout)

	day, err := s.schedule.GetDay(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("load today's entry: %w", err)
	}

	if day == nil {
		s.handleUnavailable(ctx, now, today)
		return nil, nil
	}

	currentHHMM := now.Format("15:04")
	var delivered []domain.Notification

	for i, prayer := range domain.Prayers {
		start, jamaat := day.Times(prayer)
		if start == "" || jamaat == "" {
			continue
		}

		// Minute-granularity HH:MM strings compare correctly as text.
		// "start > current" means the prayer is still ahead today.
		if start > currentHHMM {
			continue
		}

		sent, err := s.sentLog.IsSent(ctx, today, prayer)
		if err != nil {
			return delivered, fmt.Errorf("check sent log: %w", err)
		}
		if sent {
			continue
		}

		n := domain.Notification{
			Date:   today,
			Prayer: prayer,
			Start:  start,
			Jamaat: jamaat,
		}
		if prayer == domain.Fajr {
			n.Sunrise = day.Sunrise
		}
		n.NextPrayer, n.NextStart = nextPrayer(day, i)

		if err := s.notifier.SendPrayer(ctx, n); err != nil {
			// Not marked sent: the next tick attempts delivery again.
			s.logger.Error("delivery failed", "prayer", prayer, "error", err)
			continue
		}

		if err := s.sentLog.MarkSent(ctx, today, prayer); err != nil {
			return delivered, fmt.Errorf("mark sent: %w", err)
		}

		delivered = append(delivered, n)

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, &n); err != nil {
				s.logger.Error("failed to publish notification", "prayer", prayer, "error", err)
			}
		}
	}

	return delivered, nil
}

// handleUnavailable sends the degraded-mode notice, rate-limited so a
// missing timetable doesn't page subscribers every minute.
func (s *NotifyService) handleUnavailable(ctx context.Context, now time.Time, today string) {
	if !s.lastUnavailable.IsZero() && now.Sub(s.lastUnavailable) < s.config.UnavailableBackoff {
		return
	}

	s.logger.Warn("no schedule entry for today", "date", today)

	if err := s.notifier.SendUnavailable(ctx); err != nil {
		s.logger.Error("failed to send unavailable notification", "error", err)
		return
	}
	s.lastUnavailable = now
}

// nextPrayer finds the first later prayer with a known start time that day.
func nextPrayer(day *domain.PrayerDay, after int) (domain.Prayer, string) {
	for j := after + 1; j < len(domain.Prayers); j++ {
		if start, _ := day.Times(domain.Prayers[j]); start != "" {
			return domain.Prayers[j], start
		}
	}
	return "", ""
}
