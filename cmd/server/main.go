package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"routineos/internal/adapters/storage"
	"routineos/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "routineos",
	Short:         "Routine OS daily routine tracker",
	Long:          "Routine OS serves the morning routine web app. Run without a subcommand to start the server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default ./routine.yaml when present)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("routineos: %v", err)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("routineos %s (schema %d)\n", version, storage.LatestSchemaVersion())
	},
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return cfg, nil
}

// openDatabase opens and pings the configured database and brings its schema up to date.
// SQLite gets WAL mode, foreign keys and a busy timeout.
func openDatabase(cfg *config.Config) (*sql.DB, storage.Dialect, error) {
	var (
		db      *sql.DB
		dialect storage.Dialect
		err     error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		dialect = storage.DialectPostgres
		db, err = sql.Open("pgx", cfg.Database.URL)
	default:
		dialect = storage.DialectSQLite
		dsn := cfg.Database.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
		db, err = sql.Open("sqlite", dsn)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, dialect); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, dialect, nil
}
