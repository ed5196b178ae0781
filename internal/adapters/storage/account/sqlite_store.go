package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"routineos/internal/adapters/storage"
	domain "routineos/internal/domain/account"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return entity, err
}

// GetByEmail retrieves an Account by its normalised email.
// PRE: email is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM account WHERE email = ?", domain.NormalizeEmail(email))
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO account (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET email=excluded.email",
		entity.ID,
		domain.NormalizeEmail(entity.Email),
		entity.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// Delete removes an Account. Magic links and routines cascade.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	return err
}

// SaveMagicLink records a newly issued link.
// PRE: link.ID is the token's jti
// POST: link is persisted unused
func (s *SQLiteStore) SaveMagicLink(ctx context.Context, link domain.MagicLink) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO magic_link (id, account_id, expires_at, used_at, created_at) VALUES (?, ?, ?, NULL, ?)",
		link.ID,
		link.AccountID,
		link.ExpiresAt.UTC().Format(timeLayout),
		link.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// GetMagicLink retrieves a link by its jti.
// PRE: id is non-empty
// POST: Returns the link or ErrNotFound
func (s *SQLiteStore) GetMagicLink(ctx context.Context, id string) (domain.MagicLink, error) {
	var link domain.MagicLink
	var expiresAt, createdAt string
	var usedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, expires_at, used_at, created_at FROM magic_link WHERE id = ?", id,
	).Scan(&link.ID, &link.AccountID, &expiresAt, &usedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MagicLink{}, fmt.Errorf("magic link: %w", ErrNotFound)
	}
	if err != nil {
		return domain.MagicLink{}, err
	}
	link.ExpiresAt, _ = parseTime(expiresAt)
	link.CreatedAt, _ = parseTime(createdAt)
	if usedAt.Valid && usedAt.String != "" {
		link.UsedAt, _ = parseTime(usedAt.String)
	}
	return link, nil
}

// MarkMagicLinkUsed stamps used_at once. A second call for the same link fails.
// PRE: id is non-empty
// POST: used_at is set, or domain.ErrLinkUsed when it already was
func (s *SQLiteStore) MarkMagicLinkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE magic_link SET used_at = ? WHERE id = ? AND used_at IS NULL",
		at.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLinkUsed
	}
	return nil
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	if err := scan(&entity.ID, &entity.Email, &createdAt); err != nil {
		return domain.Account{}, err
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	return entity, nil
}
