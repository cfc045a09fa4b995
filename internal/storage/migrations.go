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
				`CREATE TABLE IF NOT EXISTS hts_nodes (
					code TEXT PRIMARY KEY,
					level TEXT NOT NULL,
					description TEXT NOT NULL,
					parent_code TEXT,
					general_rate TEXT,
					special_rates TEXT,
					revision TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_hts_nodes_parent ON hts_nodes(parent_code)`,

				`CREATE TABLE IF NOT EXISTS schedule_meta (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS tariff_layers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					program_id TEXT NOT NULL,
					scope_pattern TEXT NOT NULL,
					countries_all BOOLEAN NOT NULL DEFAULT 0,
					countries_include TEXT,
					countries_exclude TEXT,
					rate REAL NOT NULL DEFAULT 0,
					effective_from DATETIME,
					effective_to DATETIME,
					precedence_class INTEGER NOT NULL DEFAULT 0,
					exclusion_flag BOOLEAN NOT NULL DEFAULT 0,
					live_rate BOOLEAN NOT NULL DEFAULT 0,
					source TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_tariff_layers_program ON tariff_layers(program_id)`,
				`CREATE INDEX idx_tariff_layers_scope ON tariff_layers(scope_pattern)`,
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
		Version:     2,
		Description: "Add classification history for auditing",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS classification_history (
					id TEXT PRIMARY KEY,
					description TEXT NOT NULL,
					hints TEXT,
					primary_code TEXT NOT NULL,
					confidence REAL DEFAULT 0,
					alternatives TEXT,
					needs_clarification BOOLEAN NOT NULL DEFAULT 0,
					oracle_degraded BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_classification_history_created ON classification_history(created_at)`,
				`CREATE INDEX idx_classification_history_code ON classification_history(primary_code)`,
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
		Description: "Index layer lookups by scope length for the registry loader",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_tariff_layers_program_scope
				ON tariff_layers(program_id, scope_pattern)`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

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
