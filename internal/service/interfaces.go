package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"prayer_notifier/internal/domain"
)

// CalendarSource locates the current calendar image and downloads it. The
// image URL doubles as the change-detection identifier.
type CalendarSource interface {
	CalendarImageURL(ctx context.Context) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}

// ScheduleExtractor turns raw calendar-image bytes into a structured
// schedule. Ditto marks are resolved before the schedule is returned.
type ScheduleExtractor interface {
	Extract(ctx context.Context, image []byte) (*domain.Schedule, error)
}

type ScheduleStore interface {
	UpsertDays(ctx context.Context, days []domain.PrayerDay) error
	GetDay(ctx context.Context, date string) (*domain.PrayerDay, error)
	CountDays(ctx context.Context) (int, error)
}

type CalendarStateStore interface {
	Get(ctx context.Context) (*domain.CalendarState, error)
	Update(ctx context.Context, state *domain.CalendarState) error
}

type SentLog interface {
	IsSent(ctx context.Context, date string, prayer domain.Prayer) (bool, error)
	MarkSent(ctx context.Context, date string, prayer domain.Prayer) error
}

type Notifier interface {
	SendPrayer(ctx context.Context, n domain.Notification) error
	SendUnavailable(ctx context.Context) error
	SendSummary(ctx context.Context, label string, days []domain.PrayerDay) error
}

type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
	Close() error
}

type Clock interface {
	Now() time.Time
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
