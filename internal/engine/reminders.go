package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/detection"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/reminder"
	"github.com/Veraticus/the-paperwork-must-flow/internal/storage"
)

// RemindOptions controls a reminder run.
type RemindOptions struct {
	Calendar        reminder.CalendarCollaborator
	Channels        []model.Channel
	RespectSettings bool
	DryRun          bool
}

// RemindSummary reports the outcome of one reminder run. Result is nil for a
// dry run.
type RemindSummary struct {
	Batch  *reminder.ReminderBatch
	Result *reminder.ProcessResult
	RunID  string
}

// RunReminders generates reminders for every open missing document and
// dispatches the ones that are due. Overdue state is recomputed as of now, not
// taken from the last detection pass.
func (e *Engine) RunReminders(ctx context.Context, opts RemindOptions) (summary *RemindSummary, err error) {
	start := time.Now()
	defer func() { e.observer.RecordStage(StageRemind, time.Since(start), err) }()

	summary = &RemindSummary{RunID: newRunID()}
	logger := slog.With("run_id", summary.RunID, "stage", StageRemind)

	open, err := e.storage.GetOpenMissingDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open missing documents: %w", err)
	}
	now := e.clock()
	for i := range open {
		detection.RefreshOverdue(&open[i], now)
	}

	batch, err := e.generator.GenerateReminders(ctx, open, reminder.GenerateOptions{
		Calendar:        opts.Calendar,
		RespectSettings: opts.RespectSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate reminders: %w", err)
	}
	summary.Batch = batch
	e.observer.RecordRemindersGenerated(batch.ByType)

	if opts.DryRun {
		logger.Info("Generated reminders (dry run)",
			"pending", batch.TotalPending,
			"reminders", batch.TotalReminders)
		return summary, nil
	}

	result := e.processor.ProcessDueReminders(ctx, batch.Reminders, reminder.ProcessOptions{
		Channels: opts.Channels,
	})
	summary.Result = &result
	e.observer.RecordDispatch(result.ByChannel, result.FailedByChannel)

	logger.Info("Reminder run complete",
		"pending", batch.TotalPending,
		"generated", batch.TotalReminders,
		"processed", result.Processed,
		"sent", result.Sent,
		"failed", result.Failed)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// CycleSummary is one full analyze, detect and remind pass.
type CycleSummary struct {
	Analysis  *AnalysisSummary
	Detection *DetectionSummary
	Reminders *RemindSummary
}

// RunCycle runs analysis, detection as of now, then reminders. It stops at the
// first failing stage.
func (e *Engine) RunCycle(ctx context.Context, opts RemindOptions) (*CycleSummary, error) {
	cycle := &CycleSummary{}

	analysis, err := e.AnalyzePatterns(ctx)
	if err != nil {
		return cycle, err
	}
	cycle.Analysis = analysis

	detected, err := e.DetectMissing(ctx, e.clock())
	if err != nil {
		return cycle, err
	}
	cycle.Detection = detected

	reminders, err := e.RunReminders(ctx, opts)
	if err != nil {
		return cycle, err
	}
	cycle.Reminders = reminders

	return cycle, nil
}

// ApplyAction performs a reminder action on a missing document. View is a
// no-op beyond checking the document exists.
func (e *Engine) ApplyAction(ctx context.Context, missingDocumentID int64, action model.ActionType) error {
	switch action {
	case model.ActionUpload:
		return e.MarkUploaded(ctx, missingDocumentID)
	case model.ActionDismiss:
		return e.Dismiss(ctx, missingDocumentID)
	case model.ActionSnooze:
		_, err := e.Snooze(ctx, missingDocumentID, 0)
		return err
	case model.ActionView:
		_, err := e.storage.GetMissingDocument(ctx, missingDocumentID)
		return err
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownCommand, action)
	}
}

// Snooze suppresses reminders for a document for days days, or the configured
// default when days is not positive. It returns the end of the snooze.
func (e *Engine) Snooze(ctx context.Context, missingDocumentID int64, days int) (time.Time, error) {
	if days <= 0 {
		days = e.config.SnoozeDays
	}

	doc, err := e.storage.GetMissingDocument(ctx, missingDocumentID)
	if err != nil {
		return time.Time{}, err
	}
	if doc.Status.IsTerminal() {
		return time.Time{}, fmt.Errorf("%w: document is %s", storage.ErrInvalidTransition, doc.Status)
	}

	until := common.AddDays(e.clock(), days)
	if err := e.storage.SnoozeMissingDocument(ctx, missingDocumentID, until); err != nil {
		return time.Time{}, err
	}
	slog.Info("Snoozed missing document", "id", missingDocumentID, "until", until.Format(common.DateLayout))
	return until, nil
}

// Dismiss stops all reminders for a document.
func (e *Engine) Dismiss(ctx context.Context, missingDocumentID int64) error {
	return e.storage.UpdateMissingDocumentStatus(ctx, missingDocumentID, model.MissingStatusDismissed)
}

// MarkUploaded resolves a document by hand.
func (e *Engine) MarkUploaded(ctx context.Context, missingDocumentID int64) error {
	return e.storage.UpdateMissingDocumentStatus(ctx, missingDocumentID, model.MissingStatusUploaded)
}
