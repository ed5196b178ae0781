package routine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"routineos/internal/adapters/storage"
	domain "routineos/internal/domain/routine"
)

// pgEntryColumns normalises DATE and JSONB to text so scanning matches the SQLite store.
const pgEntryColumns = "id, user_id, to_char(date, 'YYYY-MM-DD'), happiness, sleep_hours, focus_areas::text, " +
	"focus_desc, toltec_word, toltec_personal, toltec_assume, toltec_best, created_at, updated_at"

// PostgresStore implements Store using Postgres through the pgx stdlib driver.
type PostgresStore struct {
	db storage.SQLDB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a routine store backed by Postgres.
func NewPostgresStore(db storage.SQLDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByUserAndDate retrieves the entry for a user on a date.
// PRE: userID and date are non-empty
// POST: Returns the entry, or nil with no error when none exists
func (s *PostgresStore) GetByUserAndDate(ctx context.Context, userID, date string) (*domain.Entry, error) {
	query := "SELECT " + pgEntryColumns + " FROM routines WHERE user_id = $1 AND date = $2::date"
	entry, err := scanPostgresEntry(s.db.QueryRowContext(ctx, query, userID, date).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return &entry, nil
}

// ListByUser retrieves a user's entries, newest date first.
// PRE: limit >= 0
// POST: Returns at most limit entries (all when limit is 0)
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	query := "SELECT " + pgEntryColumns + " FROM routines WHERE user_id = $1 ORDER BY date DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entry, err := scanPostgresEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

// Upsert writes the full entry keyed by (user_id, date).
// PRE: entry has been validated
// POST: Exactly one row exists for (user_id, date) holding entry's fields
func (s *PostgresStore) Upsert(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	areas, err := encodeFocusAreas(entry.FocusAreas)
	if err != nil {
		return domain.Entry{}, err
	}
	now := timeNow().UTC()

	query := `INSERT INTO routines (id, user_id, date, happiness, sleep_hours, focus_areas, focus_desc,
			toltec_word, toltec_personal, toltec_assume, toltec_best, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6::jsonb, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (user_id, date) DO UPDATE SET
			happiness = EXCLUDED.happiness,
			sleep_hours = EXCLUDED.sleep_hours,
			focus_areas = EXCLUDED.focus_areas,
			focus_desc = EXCLUDED.focus_desc,
			toltec_word = EXCLUDED.toltec_word,
			toltec_personal = EXCLUDED.toltec_personal,
			toltec_assume = EXCLUDED.toltec_assume,
			toltec_best = EXCLUDED.toltec_best,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err = s.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		entry.UserID,
		entry.Date,
		nullableHappiness(entry.Happiness),
		nullableSleep(entry.SleepHours),
		areas,
		entry.FocusDesc,
		entry.Agreements.Word,
		entry.Agreements.Personal,
		entry.Agreements.Assume,
		entry.Agreements.Best,
		now,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("upsert routine: %w", err)
	}
	return entry, nil
}

// DeleteByUser removes all of a user's entries.
// PRE: userID is non-empty
// POST: No routines rows remain for userID
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routines WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("delete routines: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanPostgresEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var entry domain.Entry
	var happiness sql.NullString
	var sleep sql.NullFloat64
	var areas string
	err := scan(
		&entry.ID,
		&entry.UserID,
		&entry.Date,
		&happiness,
		&sleep,
		&areas,
		&entry.FocusDesc,
		&entry.Agreements.Word,
		&entry.Agreements.Personal,
		&entry.Agreements.Assume,
		&entry.Agreements.Best,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	entry.Happiness = domain.Happiness(happiness.String)
	if sleep.Valid {
		v := sleep.Float64
		entry.SleepHours = &v
	}
	if entry.FocusAreas, err = decodeFocusAreas(areas); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}
