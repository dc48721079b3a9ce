package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// SaveUploads records uploads. Re-recording the same (type, source, date) is a no-op.
func (s *SQLiteStorage) SaveUploads(ctx context.Context, uploads []model.UploadRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUploads(uploads); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO uploads (document_type, source, upload_date)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("failed to close statement", "error", err)
		}
	}()

	inserted := 0
	for i := range uploads {
		result, err := stmt.ExecContext(ctx, uploads[i].DocumentType, uploads[i].Source, uploads[i].UploadDate.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert upload: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
			if id, err := result.LastInsertId(); err == nil {
				uploads[i].ID = id
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit uploads: %w", err)
	}

	slog.Debug("saved uploads", "received", len(uploads), "inserted", inserted)
	return nil
}

// GetUploads returns uploads matching the filter, oldest first.
func (s *SQLiteStorage) GetUploads(ctx context.Context, filter service.UploadFilter) ([]model.UploadRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, fmt.Errorf("%w: until %v is before since %v", ErrInvalidDateRange, *filter.Until, *filter.Since)
	}

	var conditions []string
	var args []any
	if filter.DocumentType != "" {
		conditions = append(conditions, "document_type = ?")
		args = append(args, filter.DocumentType)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Since != nil {
		conditions = append(conditions, "upload_date >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		conditions = append(conditions, "upload_date <= ?")
		args = append(args, filter.Until.UTC())
	}

	query := `SELECT id, document_type, source, upload_date, created_at FROM uploads`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY upload_date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var uploads []model.UploadRecord
	for rows.Next() {
		var u model.UploadRecord
		if err := rows.Scan(&u.ID, &u.DocumentType, &u.Source, &u.UploadDate, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}

	return uploads, nil
}
