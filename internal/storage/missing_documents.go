package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

const missingColumns = `id, pattern_id, document_type, source, expected_date, grace_period_end,
	days_overdue, is_missing, confidence, last_upload_date, historical_uploads, status,
	detected_at, snoozed_until`

// SaveMissingDocument upserts a missing document by (pattern, expected date).
// Detection output refreshes the overdue figures, but the stored status and
// snooze survive so a re-run never resurrects a dismissed document.
func (s *SQLiteStorage) SaveMissingDocument(ctx context.Context, doc *model.MissingDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMissingDocument(doc); err != nil {
		return err
	}

	var lastUpload sql.NullTime
	if doc.LastUploadDate != nil {
		lastUpload = sql.NullTime{Time: doc.LastUploadDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO missing_documents (
			pattern_id, document_type, source, expected_date, grace_period_end,
			days_overdue, is_missing, confidence, last_upload_date, historical_uploads,
			status, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern_id, expected_date) DO UPDATE SET
			grace_period_end = excluded.grace_period_end,
			days_overdue = excluded.days_overdue,
			is_missing = excluded.is_missing,
			confidence = excluded.confidence,
			last_upload_date = excluded.last_upload_date,
			historical_uploads = excluded.historical_uploads,
			updated_at = CURRENT_TIMESTAMP`,
		doc.PatternID, doc.DocumentType, doc.Source, doc.ExpectedDate.UTC(), doc.GracePeriodEnd.UTC(),
		doc.DaysOverdue, doc.IsMissing, doc.Confidence, lastUpload, doc.HistoricalUploads,
		doc.Status, doc.DetectedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save missing document: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+missingColumns+` FROM missing_documents WHERE pattern_id = ? AND expected_date = ?`,
		doc.PatternID, doc.ExpectedDate.UTC())
	stored, err := scanMissingDocument(row)
	if err != nil {
		return fmt.Errorf("failed to reload missing document: %w", err)
	}
	*doc = *stored

	slog.Debug("saved missing document",
		"id", doc.ID,
		"pattern_id", doc.PatternID,
		"status", doc.Status,
		"days_overdue", doc.DaysOverdue)
	return nil
}

// GetMissingDocument retrieves a missing document by ID.
func (s *SQLiteStorage) GetMissingDocument(ctx context.Context, id int64) (*model.MissingDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+missingColumns+` FROM missing_documents WHERE id = ?`, id)
	doc, err := scanMissingDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissingDocNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetOpenMissingDocuments returns every pending or reminded document.
func (s *SQLiteStorage) GetOpenMissingDocuments(ctx context.Context) ([]model.MissingDocument, error) {
	return s.GetMissingDocuments(ctx, model.MissingStatusPending, model.MissingStatusReminded)
}

// GetMissingDocuments returns documents in any of the given statuses, or all
// documents when none are given. Most overdue first.
func (s *SQLiteStorage) GetMissingDocuments(ctx context.Context, statuses ...model.MissingStatus) ([]model.MissingDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + missingColumns + ` FROM missing_documents`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			if err := validateStatus(status); err != nil {
				return nil, err
			}
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY days_overdue DESC, expected_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing documents: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var docs []model.MissingDocument
	for rows.Next() {
		doc, err := scanMissingDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missing documents: %w", err)
	}
	return docs, nil
}

// UpdateMissingDocumentStatus moves a document to a new status, refusing
// transitions out of terminal states.
func (s *SQLiteStorage) UpdateMissingDocumentStatus(ctx context.Context, id int64, status model.MissingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	current, err := s.GetMissingDocument(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	if current.Status == status {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE missing_documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update missing document status: %w", err)
	}

	slog.Debug("updated missing document status", "id", id, "from", current.Status, "to", status)
	return nil
}

// SnoozeMissingDocument suppresses reminders for a document until the given time.
func (s *SQLiteStorage) SnoozeMissingDocument(ctx context.Context, id int64, until time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if until.IsZero() {
		return fmt.Errorf("%w: snooze time", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE missing_documents SET snoozed_until = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		until.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to snooze missing document: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrMissingDocNotFound
	}
	return nil
}

// ResolveMissingDocuments marks open documents of a pattern as uploaded when
// an upload arrived on or after their expected day. Only the calendar day of
// uploadedAt counts.
func (s *SQLiteStorage) ResolveMissingDocuments(ctx context.Context, patternID int64, uploadedAt time.Time) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE missing_documents
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE pattern_id = ? AND expected_date <= ? AND status IN (?, ?)`,
		model.MissingStatusUploaded, patternID, common.DayOf(uploadedAt),
		model.MissingStatusPending, model.MissingStatusReminded)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve missing documents: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count resolved documents: %w", err)
	}
	if n > 0 {
		slog.Debug("resolved missing documents", "pattern_id", patternID, "count", n)
	}
	return int(n), nil
}

func scanMissingDocument(row rowScanner) (*model.MissingDocument, error) {
	var (
		doc        model.MissingDocument
		lastUpload sql.NullTime
		snoozed    sql.NullTime
	)

	err := row.Scan(
		&doc.ID, &doc.PatternID, &doc.DocumentType, &doc.Source, &doc.ExpectedDate, &doc.GracePeriodEnd,
		&doc.DaysOverdue, &doc.IsMissing, &doc.Confidence, &lastUpload, &doc.HistoricalUploads, &doc.Status,
		&doc.DetectedAt, &snoozed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan missing document: %w", err)
	}

	if lastUpload.Valid {
		t := lastUpload.Time
		doc.LastUploadDate = &t
	}
	if snoozed.Valid {
		t := snoozed.Time
		doc.SnoozedUntil = &t
	}
	return &doc, nil
}
