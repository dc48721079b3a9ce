package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/detection"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// DetectionSummary reports the outcome of one detection pass.
type DetectionSummary struct {
	AsOf     time.Time
	RunID    string
	Missing  []model.MissingDocument
	Detected int
	Overdue  int
	Resolved int
	Saved    int
}

// DetectMissing decides which expected documents have not arrived as of asOf.
// Stored open rows whose upload has since arrived are marked uploaded first;
// the remaining detections are upserted with their stored status preserved.
// The pass stops at the first failed write.
func (e *Engine) DetectMissing(ctx context.Context, asOf time.Time) (summary *DetectionSummary, err error) {
	start := time.Now()
	defer func() { e.observer.RecordStage(StageDetect, time.Since(start), err) }()

	summary = &DetectionSummary{AsOf: asOf, RunID: newRunID()}
	logger := slog.With("run_id", summary.RunID, "stage", StageDetect)

	patterns, err := e.storage.GetPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	open, err := e.storage.GetOpenMissingDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open missing documents: %w", err)
	}

	since, ok := earliestExpected(patterns, open)
	var recent []model.UploadRecord
	if ok {
		recent, err = e.storage.GetUploads(ctx, service.UploadFilter{Since: &since})
		if err != nil {
			return nil, fmt.Errorf("failed to load recent uploads: %w", err)
		}
	}

	summary.Resolved, err = e.resolveArrived(ctx, open, recent)
	if err != nil {
		return summary, err
	}

	summary.Missing = detection.DetectMissingDocuments(patterns, recent, asOf)
	summary.Detected = len(summary.Missing)
	for i := range summary.Missing {
		doc := &summary.Missing[i]
		if doc.IsMissing {
			summary.Overdue++
		}
		if err := e.storage.SaveMissingDocument(ctx, doc); err != nil {
			return summary, fmt.Errorf("failed to save missing %s from %s due %s: %w",
				doc.DocumentType, doc.Source, doc.ExpectedDate.Format(common.DateLayout), err)
		}
		summary.Saved++
	}

	e.observer.RecordMissing(summary.Detected, summary.Overdue)
	logger.Info("Missing document detection complete",
		"as_of", asOf.Format(common.DateLayout),
		"detected", summary.Detected,
		"overdue", summary.Overdue,
		"resolved", summary.Resolved,
		"saved", summary.Saved)

	return summary, nil
}

// resolveArrived closes open rows whose stream has an upload on or after the
// expected date.
func (e *Engine) resolveArrived(ctx context.Context, open []model.MissingDocument, recent []model.UploadRecord) (int, error) {
	latest := make(map[model.PatternKey]time.Time)
	for _, u := range recent {
		if current, ok := latest[u.Key()]; !ok || u.UploadDate.After(current) {
			latest[u.Key()] = u.UploadDate
		}
	}

	resolved := 0
	seen := make(map[int64]bool)
	for _, doc := range open {
		if seen[doc.PatternID] {
			continue
		}
		uploaded, ok := latest[model.PatternKey{DocumentType: doc.DocumentType, Source: doc.Source}]
		if !ok || common.DayOf(uploaded).Before(common.DayOf(doc.ExpectedDate)) {
			continue
		}
		seen[doc.PatternID] = true

		n, err := e.storage.ResolveMissingDocuments(ctx, doc.PatternID, common.DayOf(uploaded))
		if err != nil {
			return resolved, fmt.Errorf("failed to resolve missing documents for pattern %d: %w", doc.PatternID, err)
		}
		resolved += n
	}
	return resolved, nil
}

// earliestExpected is the earliest date an upload could satisfy any open row
// or pending cycle.
func earliestExpected(patterns []model.DocumentPattern, open []model.MissingDocument) (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	consider := func(t time.Time) {
		if !found || t.Before(earliest) {
			earliest = t
			found = true
		}
	}
	for _, p := range patterns {
		if p.NextExpectedDate != nil {
			consider(common.DayOf(*p.NextExpectedDate))
		}
	}
	for _, doc := range open {
		consider(common.DayOf(doc.ExpectedDate))
	}
	return earliest, found
}

// ExpectedDocuments forecasts documents due within lookAheadDays of now. A
// non-positive lookahead uses the configured default.
func (e *Engine) ExpectedDocuments(ctx context.Context, lookAheadDays int) ([]detection.ExpectedDocument, error) {
	if lookAheadDays <= 0 {
		lookAheadDays = e.config.LookAheadDays
	}
	patterns, err := e.storage.GetPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	return detection.GetExpectedDocuments(patterns, lookAheadDays, e.clock()), nil
}
