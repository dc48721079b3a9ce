// Package engine runs the analysis, detection and reminder stages against storage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/detection"
	"github.com/Veraticus/the-paperwork-must-flow/internal/metrics"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/reminder"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage names reported to the metrics observer.
const (
	StageAnalyze = "analyze"
	StageDetect  = "detect"
	StageRemind  = "remind"
)

// Engine orchestrates pattern analysis, missing document detection and
// reminder dispatch.
type Engine struct {
	storage   service.Storage
	generator *reminder.Generator
	processor *reminder.Processor
	observer  metrics.Observer
	clock     service.Clock
	progress  func(done, total int)
	config    Config
}

// Config holds configuration options for the engine.
type Config struct {
	Observer      metrics.Observer
	Clock         service.Clock
	Progress      func(done, total int)
	Concurrency   int
	LookAheadDays int
	SnoozeDays    int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:   4,
		LookAheadDays: 30,
		SnoozeDays:    model.DefaultSnoozeDays,
	}
}

// New creates an engine with the default configuration.
func New(store service.Storage, notifier reminder.Notifier) *Engine {
	return NewWithConfig(store, notifier, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store service.Storage, notifier reminder.Notifier, config Config) *Engine {
	defaults := DefaultConfig()
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.LookAheadDays <= 0 {
		config.LookAheadDays = defaults.LookAheadDays
	}
	if config.SnoozeDays <= 0 {
		config.SnoozeDays = defaults.SnoozeDays
	}
	if config.Clock == nil {
		config.Clock = service.SystemClock
	}
	if config.Observer == nil {
		config.Observer = metrics.Nop{}
	}

	return &Engine{
		storage:   store,
		generator: reminder.NewGenerator(store, store, config.Clock),
		processor: reminder.NewProcessor(notifier, store, store, config.Clock),
		observer:  config.Observer,
		clock:     config.Clock,
		progress:  config.Progress,
		config:    config,
	}
}

// AnalysisSummary reports the outcome of one analysis run.
type AnalysisSummary struct {
	ByFrequency map[model.Frequency]int
	RunID       string
	Patterns    []model.DocumentPattern
	Duration    time.Duration
	Streams     int
	Saved       int
	Changed     int
}

// AnalyzePatterns learns a pattern for every (document type, source) stream in
// the upload feed. Detection runs concurrently; patterns are written one at a
// time in stream order and the run stops at the first failed write. A
// frequency change against the stored pattern is appended to its history.
func (e *Engine) AnalyzePatterns(ctx context.Context) (summary *AnalysisSummary, err error) {
	start := time.Now()
	defer func() { e.observer.RecordStage(StageAnalyze, time.Since(start), err) }()

	runID := newRunID()
	logger := slog.With("run_id", runID, "stage", StageAnalyze)

	uploads, err := e.storage.GetUploads(ctx, service.UploadFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load uploads: %w", err)
	}

	groups := model.GroupUploads(uploads)
	keys := sortedKeys(groups)
	summary = &AnalysisSummary{
		RunID:       runID,
		Streams:     len(keys),
		ByFrequency: make(map[model.Frequency]int),
	}
	if len(keys) == 0 {
		logger.Info("No uploads to analyze")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	logger.Info("Starting pattern analysis", "uploads", len(uploads), "streams", len(keys))

	detected, err := e.detectPatterns(ctx, keys, groups)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	for i, key := range keys {
		pattern := detected[i]
		if pattern == nil {
			continue
		}

		changed, err := e.savePattern(ctx, pattern, now)
		if err != nil {
			return summary, fmt.Errorf("failed to save pattern %s: %w", key, err)
		}

		summary.Saved++
		if changed {
			summary.Changed++
		}
		summary.ByFrequency[pattern.Frequency]++
		summary.Patterns = append(summary.Patterns, *pattern)
	}

	summary.Duration = time.Since(start)
	e.observer.RecordPatterns(summary.ByFrequency)

	logger.Info("Pattern analysis complete",
		"saved", summary.Saved,
		"changed", summary.Changed,
		"duration", summary.Duration)

	return summary, nil
}

// detectPatterns runs the detector per stream with bounded parallelism. The
// result slice is indexed like keys.
func (e *Engine) detectPatterns(ctx context.Context, keys []model.PatternKey, groups map[model.PatternKey][]model.UploadRecord) ([]*model.DocumentPattern, error) {
	results := make([]*model.DocumentPattern, len(keys))
	done := make(chan struct{}, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			records := groups[key]
			dates := make([]time.Time, len(records))
			for j, r := range records {
				dates[j] = r.UploadDate
			}

			results[i] = detection.DetectPattern(key.DocumentType, key.Source, dates)
			done <- struct{}{}
			return nil
		})
	}

	var waitErr error
	finished := make(chan struct{})
	go func() {
		waitErr = g.Wait()
		close(finished)
	}()

	count := 0
	for {
		select {
		case <-done:
			count++
			if e.progress != nil {
				e.progress(count, len(keys))
			}
		case <-finished:
			// Signals sent before Wait returned may still be buffered.
			for len(done) > 0 {
				<-done
				count++
				if e.progress != nil {
					e.progress(count, len(keys))
				}
			}
			if waitErr != nil {
				return nil, fmt.Errorf("pattern detection canceled: %w", waitErr)
			}
			return results, nil
		}
	}
}

func (e *Engine) savePattern(ctx context.Context, pattern *model.DocumentPattern, now time.Time) (bool, error) {
	existing, err := e.storage.GetPattern(ctx, pattern.DocumentType, pattern.Source)
	if err != nil && !errors.Is(err, storage.ErrPatternNotFound) {
		return false, fmt.Errorf("failed to load stored pattern: %w", err)
	}

	pattern.AnalyzedAt = now
	changed := false
	if existing != nil {
		pattern.ID = existing.ID
		pattern.PatternChanges = existing.PatternChanges
		if existing.Frequency != pattern.Frequency {
			changed = true
			pattern.PatternChanges = append(pattern.PatternChanges, model.PatternChange{
				PatternID:       existing.ID,
				FromFrequency:   existing.Frequency,
				ToFrequency:     pattern.Frequency,
				DetectedAt:      now,
				UploadsAnalyzed: pattern.UploadsAnalyzed,
			})
			slog.Info("Pattern frequency changed",
				"stream", pattern.Key().String(),
				"from", existing.Frequency,
				"to", pattern.Frequency)
		}
	}

	if err := e.storage.SavePattern(ctx, pattern); err != nil {
		return false, err
	}
	return changed, nil
}

func sortedKeys(groups map[model.PatternKey][]model.UploadRecord) []model.PatternKey {
	keys := make([]model.PatternKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func newRunID() string {
	return uuid.NewString()
}
