package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"prayer_notifier/internal/domain"
)

type ScheduleStore struct {
	db *sqlx.DB
}

func NewScheduleStore(db *sqlx.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// UpsertDays merges extracted days into the store. Each incoming date
// overwrites its own row; rows for dates not in the batch are untouched, so
// a partial calendar image never erases already-known history.
func (s *ScheduleStore) UpsertDays(ctx context.Context, days []domain.PrayerDay) error {
	exec := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO prayer_days (
			date, day_name, fajr_start, fajr_jamaat, sunrise,
			zuhr_start, zuhr_jamaat, asr_start, asr_jamaat,
			maghrib_start, maghrib_jamaat, isha_start, isha_jamaat, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW()
		)
		ON CONFLICT (date) DO UPDATE SET
			day_name = EXCLUDED.day_name,
			fajr_start = EXCLUDED.fajr_start,
			fajr_jamaat = EXCLUDED.fajr_jamaat,
			sunrise = EXCLUDED.sunrise,
			zuhr_start = EXCLUDED.zuhr_start,
			zuhr_jamaat = EXCLUDED.zuhr_jamaat,
			asr_start = EXCLUDED.asr_start,
			asr_jamaat = EXCLUDED.asr_jamaat,
			maghrib_start = EXCLUDED.maghrib_start,
			maghrib_jamaat = EXCLUDED.maghrib_jamaat,
			isha_start = EXCLUDED.isha_start,
			isha_jamaat = EXCLUDED.isha_jamaat,
			updated_at = NOW()`

	for i := range days {
		d := &days[i]
		_, err := exec.ExecContext(ctx, query,
			d.Date,
			d.DayName,
			d.FajrStart,
			d.FajrJamaat,
			d.Sunrise,
			d.ZuhrStart,
			d.ZuhrJamaat,
			d.AsrStart,
			d.AsrJamaat,
			d.MaghribStart,
			d.MaghribJamaat,
			d.IshaStart,
			d.IshaJamaat,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetDay returns the entry for a date, or nil when none exists.
func (s *ScheduleStore) GetDay(ctx context.Context, date string) (*domain.PrayerDay, error) {
	query := `
		SELECT date, day_name, fajr_start, fajr_jamaat, sunrise,
		       zuhr_start, zuhr_jamaat, asr_start, asr_jamaat,
		       maghrib_start, maghrib_jamaat, isha_start, isha_jamaat
		FROM prayer_days
		WHERE date = $1`

	var day domain.PrayerDay
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &day, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// CountDays reports how many dates the store knows about.
func (s *ScheduleStore) CountDays(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, "SELECT COUNT(*) FROM prayer_days")
	return count, err
}
