package reminder

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// Notifier delivers a reminder over one channel.
type Notifier interface {
	Send(ctx context.Context, reminder *model.DocumentReminder, channel model.Channel) error
}

// StatusUpdater advances a missing document's status.
type StatusUpdater interface {
	UpdateMissingDocumentStatus(ctx context.Context, id int64, status model.MissingStatus) error
}

// ProcessOptions controls a processing pass. With no channels each reminder
// goes out on its own configured channels.
type ProcessOptions struct {
	Channels []model.Channel
}

// ProcessResult summarizes a processing pass. Failed counts channel sends,
// so a reminder on two channels can contribute to both Sent and Failed.
type ProcessResult struct {
	ByChannel       map[model.Channel]int
	FailedByChannel map[model.Channel]int
	Processed       int
	Sent            int
	Failed          int
}

// Processor dispatches due reminders and records what was sent.
type Processor struct {
	notifier Notifier
	status   StatusUpdater
	history  service.ReminderHistoryStore
	clock    service.Clock
}

// NewProcessor creates a processor. A nil clock means the wall clock.
func NewProcessor(notifier Notifier, status StatusUpdater, history service.ReminderHistoryStore, clock service.Clock) *Processor {
	if clock == nil {
		clock = service.SystemClock
	}
	return &Processor{
		notifier: notifier,
		status:   status,
		history:  history,
		clock:    clock,
	}
}

// SendReminder delivers one reminder on one channel, records the dispatch and
// moves the document from pending to reminded. It reports false on any
// failure. A reminder already recorded for the channel is not sent again.
func (p *Processor) SendReminder(ctx context.Context, reminder *model.DocumentReminder, channel model.Channel) bool {
	fields := common.Fields{
		"reminder_id":         reminder.ID,
		"missing_document_id": reminder.MissingDocumentID,
		"sequence":            reminder.Sequence,
		"channel":             channel,
	}

	already, err := p.history.HasReminderBeenSent(ctx, reminder.MissingDocumentID, reminder.Sequence, channel)
	if err != nil {
		common.LogError(err, "failed to check reminder history", fields)
		return false
	}
	if already {
		common.LogDebug("reminder already sent", fields)
		return true
	}

	if err := p.notifier.Send(ctx, reminder, channel); err != nil {
		common.LogError(err, "failed to send reminder", fields)
		return false
	}

	entry := &model.ReminderHistory{
		MissingDocumentID: reminder.MissingDocumentID,
		ReminderID:        reminder.ID,
		ReminderType:      reminder.ReminderType,
		Sequence:          reminder.Sequence,
		Channel:           channel,
		SentAt:            p.clock(),
	}
	if err := p.history.RecordReminderSent(ctx, entry); err != nil {
		common.LogError(err, "failed to record reminder", fields)
		return false
	}

	if err := p.status.UpdateMissingDocumentStatus(ctx, reminder.MissingDocumentID, model.MissingStatusReminded); err != nil {
		common.LogError(err, "failed to mark document reminded", fields)
		return false
	}

	slog.Info("sent reminder",
		"reminder_id", reminder.ID,
		"type", reminder.ReminderType,
		"channel", channel,
		"source", reminder.Source)
	return true
}

// ProcessDueReminders sends every reminder scheduled at or before now. Each
// channel is attempted independently of the others.
func (p *Processor) ProcessDueReminders(ctx context.Context, reminders []model.DocumentReminder, opts ProcessOptions) ProcessResult {
	now := p.clock()
	result := ProcessResult{
		ByChannel:       make(map[model.Channel]int),
		FailedByChannel: make(map[model.Channel]int),
	}

	for i := range reminders {
		if ctx.Err() != nil {
			slog.Warn("reminder processing canceled", "processed", result.Processed, "remaining", len(reminders)-i)
			break
		}

		reminder := &reminders[i]
		if reminder.ScheduledFor.After(now) {
			continue
		}
		result.Processed++

		channels := opts.Channels
		if len(channels) == 0 {
			channels = reminder.Channels
		}
		for _, channel := range channels {
			if p.SendReminder(ctx, reminder, channel) {
				result.Sent++
				result.ByChannel[channel]++
			} else {
				result.Failed++
				result.FailedByChannel[channel]++
			}
		}
	}

	return result
}
