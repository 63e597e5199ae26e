package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/yolo-labeler/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		slog.Info("Database migration status",
			"database", cfg.DatabasePath,
			"current", current,
			"latest", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			slog.Warn("Database is behind; run 'labeler migrate' to update it")
		}
		return nil
	}

	slog.Info("Running database migrations", "database", cfg.DatabasePath, "from", current)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Database migrations completed", "version", storage.ExpectedSchemaVersion)
	return nil
}
