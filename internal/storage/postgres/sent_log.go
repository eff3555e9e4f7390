package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"prayer_notifier/internal/domain"
)

type SentLogStore struct {
	db *sqlx.DB
}

func NewSentLogStore(db *sqlx.DB) *SentLogStore {
	return &SentLogStore{db: db}
}

func (s *SentLogStore) IsSent(ctx context.Context, date string, prayer domain.Prayer) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM sent_log WHERE date = $1 AND prayer = $2)`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, date, string(prayer))
	return exists, err
}

// MarkSent records a delivery. Marking an already-marked pair is a no-op.
func (s *SentLogStore) MarkSent(ctx context.Context, date string, prayer domain.Prayer) error {
	query := `
		INSERT INTO sent_log (date, prayer, sent_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (date, prayer) DO NOTHING`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, date, string(prayer))
	return err
}
