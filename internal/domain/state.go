package domain

import "time"

// CalendarState tracks calendar-source provenance so an unchanged image is
// never re-extracted. It lives in a single durable row and survives restarts.
type CalendarState struct {
	ID            int64     `db:"id"`
	Label         string    `db:"label"`
	LastImageURL  string    `db:"last_image_url"`
	LastFetchedAt time.Time `db:"last_fetched_at"`
}

// RefreshOutcome classifies the result of one refresh attempt.
type RefreshOutcome string

const (
	RefreshSkipped   RefreshOutcome = "skipped"
	RefreshUnchanged RefreshOutcome = "unchanged"
	RefreshUpdated   RefreshOutcome = "updated"
	RefreshFailed    RefreshOutcome = "failed"
)

// RefreshStats describes what a refresh attempt did.
type RefreshStats struct {
	Outcome  RefreshOutcome
	Reason   string
	ImageURL string
	NewDays  int
	Duration time.Duration
}
