package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 5

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
				`CREATE TABLE IF NOT EXISTS uploads (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document_type TEXT NOT NULL,
					source TEXT NOT NULL,
					upload_date DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(document_type, source, upload_date)
				)`,
				`CREATE INDEX idx_uploads_stream ON uploads(document_type, source)`,
				`CREATE INDEX idx_uploads_date ON uploads(upload_date)`,

				`CREATE TABLE IF NOT EXISTS document_patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document_type TEXT NOT NULL,
					source TEXT NOT NULL,
					frequency TEXT NOT NULL,
					confidence TEXT NOT NULL,
					confidence_score REAL NOT NULL DEFAULT 0,
					expected_day_of_month INTEGER,
					average_interval_days REAL,
					interval_std_dev REAL,
					min_interval_days INTEGER,
					max_interval_days INTEGER,
					coefficient_of_variation REAL,
					consistency_score REAL,
					stability TEXT NOT NULL,
					next_expected_date DATETIME,
					grace_period_days INTEGER NOT NULL,
					uploads_analyzed INTEGER NOT NULL,
					range_start DATETIME NOT NULL,
					range_end DATETIME NOT NULL,
					analyzed_at DATETIME NOT NULL,
					UNIQUE(document_type, source)
				)`,
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
		Description: "Add missing documents, reminder settings and reminder history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS missing_documents (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					pattern_id INTEGER NOT NULL,
					document_type TEXT NOT NULL,
					source TEXT NOT NULL,
					expected_date DATETIME NOT NULL,
					grace_period_end DATETIME NOT NULL,
					days_overdue INTEGER NOT NULL DEFAULT 0,
					is_missing BOOLEAN NOT NULL DEFAULT 0,
					confidence TEXT NOT NULL,
					last_upload_date DATETIME,
					historical_uploads INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'pending',
					detected_at DATETIME NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(pattern_id, expected_date),
					FOREIGN KEY (pattern_id) REFERENCES document_patterns(id)
				)`,
				`CREATE INDEX idx_missing_documents_status ON missing_documents(status)`,

				`CREATE TABLE IF NOT EXISTS reminder_settings (
					document_type TEXT PRIMARY KEY,
					enabled BOOLEAN NOT NULL DEFAULT 1,
					reminder_days_before TEXT NOT NULL DEFAULT '[]',
					reminder_days_after TEXT NOT NULL DEFAULT '[]',
					max_reminders INTEGER NOT NULL DEFAULT 3,
					channels_enabled TEXT NOT NULL DEFAULT '["app"]',
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS reminder_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					missing_document_id INTEGER NOT NULL,
					reminder_id TEXT NOT NULL,
					reminder_type TEXT NOT NULL,
					sequence INTEGER NOT NULL,
					channel TEXT NOT NULL,
					sent_at DATETIME NOT NULL,
					UNIQUE(missing_document_id, sequence, channel),
					FOREIGN KEY (missing_document_id) REFERENCES missing_documents(id)
				)`,
				`CREATE INDEX idx_reminder_history_missing ON reminder_history(missing_document_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add pattern change log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS pattern_changes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					pattern_id INTEGER NOT NULL,
					from_frequency TEXT NOT NULL,
					to_frequency TEXT NOT NULL,
					uploads_analyzed INTEGER NOT NULL,
					detected_at DATETIME NOT NULL,
					FOREIGN KEY (pattern_id) REFERENCES document_patterns(id)
				)`,
				`CREATE INDEX idx_pattern_changes_pattern ON pattern_changes(pattern_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Add in-app notification inbox",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS notifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					missing_document_id INTEGER NOT NULL,
					reminder_id TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					urgency TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					read_at DATETIME
				)`,
				`CREATE INDEX idx_notifications_unread ON notifications(read_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     5,
		Description: "Add snooze support to missing documents",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE missing_documents ADD COLUMN snoozed_until DATETIME`)
			if err != nil {
				return fmt.Errorf("failed to add snoozed_until column: %w", err)
			}
			slog.Info("Added snooze support to missing documents")
			return nil
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

// SchemaVersion returns the applied migration version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
