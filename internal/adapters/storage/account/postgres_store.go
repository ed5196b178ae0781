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

// PostgresStore implements Store using Postgres through the pgx stdlib driver.
type PostgresStore struct {
	db storage.SQLDB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates an account store backed by Postgres.
func NewPostgresStore(db storage.SQLDB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM account WHERE id = $1", id).
		Scan(&a.ID, &a.Email, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM account WHERE email = $1", domain.NormalizeEmail(email)).
		Scan(&a.ID, &a.Email, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	return a, err
}

func (s *PostgresStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO account (id, email, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email",
		entity.ID, domain.NormalizeEmail(entity.Email), entity.CreatedAt.UTC(),
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = $1", id)
	return err
}

func (s *PostgresStore) SaveMagicLink(ctx context.Context, link domain.MagicLink) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO magic_link (id, account_id, expires_at, used_at, created_at) VALUES ($1, $2, $3, NULL, $4)",
		link.ID, link.AccountID, link.ExpiresAt.UTC(), link.CreatedAt.UTC(),
	)
	return err
}

func (s *PostgresStore) GetMagicLink(ctx context.Context, id string) (domain.MagicLink, error) {
	var link domain.MagicLink
	var usedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, expires_at, used_at, created_at FROM magic_link WHERE id = $1", id,
	).Scan(&link.ID, &link.AccountID, &link.ExpiresAt, &usedAt, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MagicLink{}, fmt.Errorf("magic link: %w", ErrNotFound)
	}
	if err != nil {
		return domain.MagicLink{}, err
	}
	if usedAt.Valid {
		link.UsedAt = usedAt.Time
	}
	return link, nil
}

// MarkMagicLinkUsed stamps used_at once. A second call for the same link fails.
func (s *PostgresStore) MarkMagicLinkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE magic_link SET used_at = $1 WHERE id = $2 AND used_at IS NULL", at.UTC(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLinkUsed
	}
	return nil
}
