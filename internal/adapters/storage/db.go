package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Dialect selects the SQL flavour used for migrations and stores.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// migration is one forward-only schema step. Both dialects must be provided.
type migration struct {
	version  int
	name     string
	sqlite   string
	postgres string
}

// migrations are applied in order; never edit a released step, append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "accounts and magic links",
		sqlite: `
		CREATE TABLE IF NOT EXISTS account (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS magic_link (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			used_at TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
		);
		`,
		postgres: `
		CREATE TABLE IF NOT EXISTS account (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS magic_link (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL,
			used_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		);
		`,
	},
	{
		version: 2,
		name:    "routines",
		sqlite: `
		CREATE TABLE IF NOT EXISTS routines (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			happiness TEXT,
			sleep_hours REAL,
			focus_areas TEXT NOT NULL DEFAULT '[]',
			focus_desc TEXT NOT NULL DEFAULT '',
			toltec_word INTEGER NOT NULL DEFAULT 0,
			toltec_personal INTEGER NOT NULL DEFAULT 0,
			toltec_assume INTEGER NOT NULL DEFAULT 0,
			toltec_best INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (user_id, date),
			FOREIGN KEY (user_id) REFERENCES account(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_routines_user_date ON routines(user_id, date DESC);
		`,
		postgres: `
		CREATE TABLE IF NOT EXISTS routines (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			happiness TEXT CHECK (happiness IN ('Low', 'Medium', 'High')),
			sleep_hours DOUBLE PRECISION CHECK (sleep_hours >= 0),
			focus_areas JSONB NOT NULL DEFAULT '[]'::jsonb,
			focus_desc TEXT NOT NULL DEFAULT '',
			toltec_word BOOLEAN NOT NULL DEFAULT FALSE,
			toltec_personal BOOLEAN NOT NULL DEFAULT FALSE,
			toltec_assume BOOLEAN NOT NULL DEFAULT FALSE,
			toltec_best BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, date)
		);

		CREATE INDEX IF NOT EXISTS idx_routines_user_date ON routines(user_id, date DESC);
		`,
	},
}

// LatestSchemaVersion returns the version reached after all migrations.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the currently applied version (0 for an empty database).
// PRE: db is a valid database connection
// POST: Returns the highest applied migration version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&exists)
	if err != nil {
		// Table missing means nothing has been applied yet.
		return 0, nil
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid database connection for dialect
// POST: All pending migrations applied, each in its own transaction; re-running is a no-op
func MigrateDB(db *sql.DB, dialect Dialect) error {
	if dialect == DialectSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, dialect, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name, "dialect", string(dialect))
	}
	return nil
}

func applyMigration(db *sql.DB, dialect Dialect, m migration) error {
	stmt := m.sqlite
	insert := `INSERT INTO schema_version (version) VALUES (?)`
	if dialect == DialectPostgres {
		stmt = m.postgres
		insert = `INSERT INTO schema_version (version) VALUES ($1)`
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return err
	}
	if _, err := tx.Exec(insert, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
