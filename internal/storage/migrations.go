package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// defaultClassName seeds an empty class list so there is always one class.
const defaultClassName = "Class 0"

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS images (
					name TEXT PRIMARY KEY,
					width INTEGER NOT NULL DEFAULT 0,
					height INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'IN_PROGRESS'
						CHECK (status IN ('DONE', 'IN_PROGRESS', 'ATTENTION')),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS classes (
					position INTEGER PRIMARY KEY,
					name TEXT NOT NULL UNIQUE COLLATE NOCASE,
					instructions TEXT NOT NULL DEFAULT ''
				)`,

				`CREATE TABLE IF NOT EXISTS annotations (
					image_name TEXT NOT NULL,
					position INTEGER NOT NULL,
					class_index INTEGER NOT NULL,
					x_center REAL NOT NULL,
					y_center REAL NOT NULL,
					width REAL NOT NULL,
					height REAL NOT NULL,
					PRIMARY KEY (image_name, position),
					FOREIGN KEY (image_name) REFERENCES images(name) ON DELETE CASCADE
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}

			if _, err := tx.Exec(`INSERT INTO classes (position, name, instructions) VALUES (0, ?, '')`, defaultClassName); err != nil {
				return fmt.Errorf("failed to seed default class: %w", err)
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index annotations by class and images by status",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_annotations_class ON annotations(class_index)`,
				`CREATE INDEX IF NOT EXISTS idx_images_status ON images(status)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add checkpoint metadata table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
				id TEXT PRIMARY KEY,
				created_at DATETIME NOT NULL,
				description TEXT,
				file_size INTEGER,
				row_counts TEXT,
				schema_version INTEGER,
				is_auto BOOLEAN DEFAULT 0,
				parent_checkpoint TEXT
			)`)
			if err != nil {
				return fmt.Errorf("failed to create checkpoint_metadata table: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the schema version stored in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
