package routine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"routineos/internal/adapters/storage"
	domain "routineos/internal/domain/routine"
)

const entryColumns = "id, user_id, date, happiness, sleep_hours, focus_areas, focus_desc, " +
	"toltec_word, toltec_personal, toltec_assume, toltec_best, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new routine store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByUserAndDate retrieves the entry for a user on a date.
// PRE: userID and date are non-empty
// POST: Returns the entry, or nil with no error when none exists
func (s *SQLiteStore) GetByUserAndDate(ctx context.Context, userID, date string) (*domain.Entry, error) {
	query := "SELECT " + entryColumns + " FROM routines WHERE user_id = ? AND date = ?"
	entry, err := scanSQLiteEntry(s.db.QueryRowContext(ctx, query, userID, date).Scan)
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
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	query := "SELECT " + entryColumns + " FROM routines WHERE user_id = ? ORDER BY date DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

// Upsert writes the full entry keyed by (user_id, date).
// PRE: entry has been validated
// POST: Exactly one row exists for (user_id, date) holding entry's fields; the row id and
// created_at survive repeated upserts
func (s *SQLiteStore) Upsert(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	areas, err := encodeFocusAreas(entry.FocusAreas)
	if err != nil {
		return domain.Entry{}, err
	}
	now := timeNow().UTC().Format(timeLayout)

	query := `INSERT INTO routines (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			happiness=excluded.happiness,
			sleep_hours=excluded.sleep_hours,
			focus_areas=excluded.focus_areas,
			focus_desc=excluded.focus_desc,
			toltec_word=excluded.toltec_word,
			toltec_personal=excluded.toltec_personal,
			toltec_assume=excluded.toltec_assume,
			toltec_best=excluded.toltec_best,
			updated_at=excluded.updated_at
		RETURNING id, created_at, updated_at`

	var createdAt, updatedAt string
	err = s.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		entry.UserID,
		entry.Date,
		nullableHappiness(entry.Happiness),
		nullableSleep(entry.SleepHours),
		areas,
		entry.FocusDesc,
		boolToInt(entry.Agreements.Word),
		boolToInt(entry.Agreements.Personal),
		boolToInt(entry.Agreements.Assume),
		boolToInt(entry.Agreements.Best),
		now,
		now,
	).Scan(&entry.ID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("upsert routine: %w", err)
	}
	entry.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	entry.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return entry, nil
}

// DeleteByUser removes all of a user's entries.
// PRE: userID is non-empty
// POST: No routines rows remain for userID
func (s *SQLiteStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM routines WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("delete routines: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// scanSQLiteEntry extracts an Entry from a row scanner function.
func scanSQLiteEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var entry domain.Entry
	var happiness sql.NullString
	var sleep sql.NullFloat64
	var areas, createdAt, updatedAt string
	var word, personal, assume, best int
	err := scan(
		&entry.ID,
		&entry.UserID,
		&entry.Date,
		&happiness,
		&sleep,
		&areas,
		&entry.FocusDesc,
		&word,
		&personal,
		&assume,
		&best,
		&createdAt,
		&updatedAt,
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
	entry.Agreements = domain.Agreements{Word: word != 0, Personal: personal != 0, Assume: assume != 0, Best: best != 0}
	entry.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	entry.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return entry, nil
}

func nullableHappiness(h domain.Happiness) any {
	if h == domain.HappinessUnset {
		return nil
	}
	return string(h)
}

func nullableSleep(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
