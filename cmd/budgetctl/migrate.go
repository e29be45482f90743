package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"budgeteer/internal/backend"
	"budgeteer/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply the embedded schema migrations to the configured SQLite or
PostgreSQL database. Already applied migrations are skipped.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := backendConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch cfg.Type {
	case backend.SQLiteBackend:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		err = storage.RunMigrations(storage.SQLite, storage.SQLiteDSN(cfg.SQLiteDBPath))
	case backend.PostgresBackend:
		err = storage.RunMigrations(storage.Postgres, cfg.DatabaseURL)
	default:
		fmt.Fprintln(out, warnStyle.Render("The memory backend has no schema to migrate."))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Database migrated (%s).", cfg.Type)))
	return nil
}
