package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"prayer_notifier/internal/domain"
)

type CalendarStateStore struct {
	db *sqlx.DB
}

func NewCalendarStateStore(db *sqlx.DB) *CalendarStateStore {
	return &CalendarStateStore{db: db}
}

// Get returns the single calendar-state row, or a zero-value state before
// the first successful refresh.
func (s *CalendarStateStore) Get(ctx context.Context) (*domain.CalendarState, error) {
	var state domain.CalendarState
	query := `
		SELECT id, label, last_image_url, last_fetched_at
		FROM calendar_state
		WHERE id = 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.CalendarState{ID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *CalendarStateStore) Update(ctx context.Context, state *domain.CalendarState) error {
	query := `
		INSERT INTO calendar_state (id, label, last_image_url, last_fetched_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			last_image_url = EXCLUDED.last_image_url,
			last_fetched_at = EXCLUDED.last_fetched_at`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.Label,
		state.LastImageURL,
		state.LastFetchedAt,
	)
	return err
}
