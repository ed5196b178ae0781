package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"routineos/internal/adapters/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, dialect, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := storage.SchemaVersion(db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Printf("%s schema at version %d\n", dialect, v)
		return nil
	},
}
