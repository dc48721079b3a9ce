package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// SaveNotification adds an entry to the in-app inbox.
func (s *SQLiteStorage) SaveNotification(ctx context.Context, n *model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: notification", ErrNilParameter)
	}
	if err := validateString(n.Title, "title"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (missing_document_id, reminder_id, title, message, urgency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.MissingDocumentID, n.ReminderID, n.Title, n.Message, n.Urgency, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification id: %w", err)
	}
	n.ID = id
	return nil
}

// GetNotifications lists inbox entries, newest first.
func (s *SQLiteStorage) GetNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, missing_document_id, reminder_id, title, message, urgency, created_at, read_at
		FROM notifications`
	if unreadOnly {
		query += ` WHERE read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var notifications []model.Notification
	for rows.Next() {
		var (
			n      model.Notification
			readAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.MissingDocumentID, &n.ReminderID, &n.Title, &n.Message,
			&n.Urgency, &n.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead stamps an inbox entry as read.
func (s *SQLiteStorage) MarkNotificationRead(ctx context.Context, id int64, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM notifications WHERE id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if !exists {
			return ErrNotificationAbsent
		}
	}
	return nil
}
