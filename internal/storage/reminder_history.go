package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// RecordReminderSent appends a dispatch to the history. Recording the same
// (document, sequence, channel) twice is a no-op.
func (s *SQLiteStorage) RecordReminderSent(ctx context.Context, entry *model.ReminderHistory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHistory(entry); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reminder_history (
			missing_document_id, reminder_id, reminder_type, sequence, channel, sent_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.MissingDocumentID, entry.ReminderID, entry.ReminderType, entry.Sequence,
		entry.Channel, entry.SentAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		if id, err := result.LastInsertId(); err == nil {
			entry.ID = id
		}
		slog.Debug("recorded reminder",
			"missing_document_id", entry.MissingDocumentID,
			"sequence", entry.Sequence,
			"channel", entry.Channel)
	}
	return nil
}

// GetReminderCount returns how many distinct reminders went out for a document.
func (s *SQLiteStorage) GetReminderCount(ctx context.Context, missingDocumentID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT sequence) FROM reminder_history WHERE missing_document_id = ?`,
		missingDocumentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reminders: %w", err)
	}
	return count, nil
}

// HasReminderBeenSent reports whether a reminder sequence already went out on a channel.
func (s *SQLiteStorage) HasReminderBeenSent(ctx context.Context, missingDocumentID int64, sequence int, channel model.Channel) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reminder_history
			WHERE missing_document_id = ? AND sequence = ? AND channel = ?
		)`, missingDocumentID, sequence, channel).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder history: %w", err)
	}
	return exists, nil
}
