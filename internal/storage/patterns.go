package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

const patternColumns = `id, document_type, source, frequency, confidence, confidence_score,
	expected_day_of_month, average_interval_days, interval_std_dev, min_interval_days,
	max_interval_days, coefficient_of_variation, consistency_score, stability,
	next_expected_date, grace_period_days, uploads_analyzed, range_start, range_end, analyzed_at`

// SavePattern upserts a pattern by (document type, source) and appends any
// new pattern changes. The pattern's ID is populated on return.
func (s *SQLiteStorage) SavePattern(ctx context.Context, pattern *model.DocumentPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		avg, stdDev, cv, consistency sql.NullFloat64
		minDays, maxDays             sql.NullInt64
		dayOfMonth                   sql.NullInt64
		next                         sql.NullTime
	)
	if st := pattern.Statistics; st != nil {
		avg = sql.NullFloat64{Float64: st.AverageIntervalDays, Valid: true}
		stdDev = sql.NullFloat64{Float64: st.IntervalStdDev, Valid: true}
		minDays = sql.NullInt64{Int64: int64(st.MinIntervalDays), Valid: true}
		maxDays = sql.NullInt64{Int64: int64(st.MaxIntervalDays), Valid: true}
		cv = sql.NullFloat64{Float64: st.CoefficientOfVariation, Valid: true}
		consistency = sql.NullFloat64{Float64: st.ConsistencyScore, Valid: true}
	}
	if pattern.ExpectedDayOfMonth != nil {
		dayOfMonth = sql.NullInt64{Int64: int64(*pattern.ExpectedDayOfMonth), Valid: true}
	}
	if pattern.NextExpectedDate != nil {
		next = sql.NullTime{Time: pattern.NextExpectedDate.UTC(), Valid: true}
	}

	query := `
		INSERT INTO document_patterns (
			document_type, source, frequency, confidence, confidence_score,
			expected_day_of_month, average_interval_days, interval_std_dev, min_interval_days,
			max_interval_days, coefficient_of_variation, consistency_score, stability,
			next_expected_date, grace_period_days, uploads_analyzed, range_start, range_end, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_type, source) DO UPDATE SET
			frequency = excluded.frequency,
			confidence = excluded.confidence,
			confidence_score = excluded.confidence_score,
			expected_day_of_month = excluded.expected_day_of_month,
			average_interval_days = excluded.average_interval_days,
			interval_std_dev = excluded.interval_std_dev,
			min_interval_days = excluded.min_interval_days,
			max_interval_days = excluded.max_interval_days,
			coefficient_of_variation = excluded.coefficient_of_variation,
			consistency_score = excluded.consistency_score,
			stability = excluded.stability,
			next_expected_date = excluded.next_expected_date,
			grace_period_days = excluded.grace_period_days,
			uploads_analyzed = excluded.uploads_analyzed,
			range_start = excluded.range_start,
			range_end = excluded.range_end,
			analyzed_at = excluded.analyzed_at`

	_, err = tx.ExecContext(ctx, query,
		pattern.DocumentType, pattern.Source, pattern.Frequency, pattern.Confidence, pattern.ConfidenceScore,
		dayOfMonth, avg, stdDev, minDays,
		maxDays, cv, consistency, pattern.Stability,
		next, pattern.GracePeriodDays, pattern.UploadsAnalyzed,
		pattern.DateRange.Start.UTC(), pattern.DateRange.End.UTC(), pattern.AnalyzedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}

	// LastInsertId is unreliable for the update branch of an upsert.
	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM document_patterns WHERE document_type = ? AND source = ?`,
		pattern.DocumentType, pattern.Source).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to read pattern id: %w", err)
	}
	pattern.ID = id

	for i := range pattern.PatternChanges {
		change := &pattern.PatternChanges[i]
		if change.ID != 0 {
			continue
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO pattern_changes (pattern_id, from_frequency, to_frequency, uploads_analyzed, detected_at)
			VALUES (?, ?, ?, ?, ?)`,
			id, change.FromFrequency, change.ToFrequency, change.UploadsAnalyzed, change.DetectedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to append pattern change: %w", err)
		}
		changeID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get pattern change id: %w", err)
		}
		change.ID = changeID
		change.PatternID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pattern: %w", err)
	}

	slog.Debug("saved pattern",
		"id", id,
		"document_type", pattern.DocumentType,
		"source", pattern.Source,
		"frequency", pattern.Frequency,
		"confidence", pattern.Confidence)
	return nil
}

// GetPattern retrieves a pattern by identity.
func (s *SQLiteStorage) GetPattern(ctx context.Context, docType model.DocumentType, source string) (*model.DocumentPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(source, "source"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM document_patterns WHERE document_type = ? AND source = ?`,
		docType, source)
	return s.scanPatternWithChanges(ctx, row)
}

// GetPatternByID retrieves a pattern by its row ID.
func (s *SQLiteStorage) GetPatternByID(ctx context.Context, id int64) (*model.DocumentPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM document_patterns WHERE id = ?`, id)
	return s.scanPatternWithChanges(ctx, row)
}

func (s *SQLiteStorage) scanPatternWithChanges(ctx context.Context, row *sql.Row) (*model.DocumentPattern, error) {
	pattern, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatternNotFound
	}
	if err != nil {
		return nil, err
	}

	changes, err := s.getPatternChanges(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}
	pattern.PatternChanges = changes[pattern.ID]
	return pattern, nil
}

// GetPatterns returns all patterns ordered by document type and source.
func (s *SQLiteStorage) GetPatterns(ctx context.Context) ([]model.DocumentPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patternColumns+` FROM document_patterns ORDER BY document_type, source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var patterns []model.DocumentPattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	changes, err := s.getPatternChanges(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range patterns {
		patterns[i].PatternChanges = changes[patterns[i].ID]
	}

	slog.Debug("retrieved patterns", "count", len(patterns))
	return patterns, nil
}

// getPatternChanges loads the change log, for one pattern or (id 0) all of them.
func (s *SQLiteStorage) getPatternChanges(ctx context.Context, patternID int64) (map[int64][]model.PatternChange, error) {
	query := `SELECT id, pattern_id, from_frequency, to_frequency, uploads_analyzed, detected_at
		FROM pattern_changes`
	var args []any
	if patternID != 0 {
		query += ` WHERE pattern_id = ?`
		args = append(args, patternID)
	}
	query += ` ORDER BY detected_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern changes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	changes := make(map[int64][]model.PatternChange)
	for rows.Next() {
		var c model.PatternChange
		if err := rows.Scan(&c.ID, &c.PatternID, &c.FromFrequency, &c.ToFrequency, &c.UploadsAnalyzed, &c.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern change: %w", err)
		}
		changes[c.PatternID] = append(changes[c.PatternID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pattern changes: %w", err)
	}
	return changes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*model.DocumentPattern, error) {
	var (
		p                            model.DocumentPattern
		avg, stdDev, cv, consistency sql.NullFloat64
		minDays, maxDays             sql.NullInt64
		dayOfMonth                   sql.NullInt64
		next                         sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.DocumentType, &p.Source, &p.Frequency, &p.Confidence, &p.ConfidenceScore,
		&dayOfMonth, &avg, &stdDev, &minDays,
		&maxDays, &cv, &consistency, &p.Stability,
		&next, &p.GracePeriodDays, &p.UploadsAnalyzed, &p.DateRange.Start, &p.DateRange.End, &p.AnalyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	if avg.Valid {
		p.Statistics = &model.IntervalStatistics{
			AverageIntervalDays:    avg.Float64,
			IntervalStdDev:         stdDev.Float64,
			MinIntervalDays:        int(minDays.Int64),
			MaxIntervalDays:        int(maxDays.Int64),
			CoefficientOfVariation: cv.Float64,
			ConsistencyScore:       consistency.Float64,
		}
	}
	if dayOfMonth.Valid {
		day := int(dayOfMonth.Int64)
		p.ExpectedDayOfMonth = &day
	}
	if next.Valid {
		t := next.Time
		p.NextExpectedDate = &t
	}

	return &p, nil
}
