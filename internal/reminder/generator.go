// Package reminder turns missing documents into scheduled reminders and
// dispatches them over notification channels.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
	"github.com/google/uuid"
)

// reminderNamespace scopes deterministic reminder IDs.
var reminderNamespace = uuid.MustParse("9c7f2a4e-5b1d-4f0e-8a3c-6d2e1f4b7a90")

// Overdue thresholds, in days past the expected date.
const (
	overdueMaxDays  = 7
	followUpMaxDays = 14
)

// CalendarCollaborator mirrors missing documents into an external calendar.
type CalendarCollaborator interface {
	CreateDeadlineFromMissing(ctx context.Context, missing *model.MissingDocument) (*model.Deadline, error)
}

// GenerateOptions controls a generation pass.
type GenerateOptions struct {
	Calendar        CalendarCollaborator
	RespectSettings bool
}

// ReminderBatch is the output of one generation pass.
type ReminderBatch struct {
	GeneratedAt    time.Time
	ByType         map[model.ReminderType]int
	ByUrgency      map[model.Urgency]int
	Reminders      []model.DocumentReminder
	Deadlines      []model.Deadline
	TotalPending   int
	TotalReminders int
}

// Generator builds reminders from the current state of missing documents.
type Generator struct {
	settings service.SettingsStore
	history  service.ReminderHistoryStore
	clock    service.Clock
}

// NewGenerator creates a generator. A nil clock means the wall clock.
func NewGenerator(settings service.SettingsStore, history service.ReminderHistoryStore, clock service.Clock) *Generator {
	if clock == nil {
		clock = service.SystemClock
	}
	return &Generator{
		settings: settings,
		history:  history,
		clock:    clock,
	}
}

// GenerateReminders produces at most one reminder per open missing document.
// Terminal and snoozed documents are skipped. With RespectSettings, disabled
// document types and documents that used up their reminder budget are skipped
// too. Calendar failures are logged and never abort the pass.
func (g *Generator) GenerateReminders(ctx context.Context, missing []model.MissingDocument, opts GenerateOptions) (*ReminderBatch, error) {
	now := g.clock()
	batch := &ReminderBatch{
		GeneratedAt: now,
		ByType:      make(map[model.ReminderType]int),
		ByUrgency:   make(map[model.Urgency]int),
	}

	for i := range missing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc := &missing[i]
		if doc.Status.IsTerminal() {
			continue
		}
		batch.TotalPending++

		if doc.IsSnoozed(now) {
			slog.Debug("skipping snoozed document",
				"missing_document_id", doc.ID,
				"snoozed_until", doc.SnoozedUntil)
			continue
		}

		settings, err := g.settingsFor(ctx, doc.DocumentType)
		if err != nil {
			return nil, err
		}

		sent, err := g.history.GetReminderCount(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count reminders for %d: %w", doc.ID, err)
		}

		if opts.RespectSettings {
			if !settings.Enabled {
				continue
			}
			if sent >= settings.MaxReminders {
				slog.Debug("reminder budget exhausted",
					"missing_document_id", doc.ID,
					"sent", sent,
					"max", settings.MaxReminders)
				continue
			}
		}

		reminder := g.buildReminder(doc, settings, sent, now)
		batch.Reminders = append(batch.Reminders, reminder)
		batch.ByType[reminder.ReminderType]++
		batch.ByUrgency[reminder.Urgency]++

		if opts.Calendar != nil && doc.Confidence.Actionable() {
			deadline, err := opts.Calendar.CreateDeadlineFromMissing(ctx, doc)
			if err != nil {
				common.LogError(err, "failed to mirror missing document to calendar", common.Fields{
					"missing_document_id": doc.ID,
					"document_type":       doc.DocumentType,
					"source":              doc.Source,
				})
			} else if deadline != nil {
				batch.Deadlines = append(batch.Deadlines, *deadline)
			}
		}
	}

	batch.TotalReminders = len(batch.Reminders)
	return batch, nil
}

func (g *Generator) settingsFor(ctx context.Context, docType model.DocumentType) (model.ReminderSettings, error) {
	if g.settings == nil {
		return model.DefaultReminderSettings(docType), nil
	}
	settings, err := g.settings.GetReminderSettings(ctx, docType)
	if err != nil {
		return model.ReminderSettings{}, fmt.Errorf("failed to load reminder settings for %s: %w", docType, err)
	}
	return settings, nil
}

func (g *Generator) buildReminder(doc *model.MissingDocument, settings model.ReminderSettings, sent int, now time.Time) model.DocumentReminder {
	reminderType := ReminderTypeFor(doc)
	sequence := sent + 1

	channels := settings.ChannelsEnabled
	if len(channels) == 0 {
		channels = []model.Channel{model.ChannelApp}
	}

	return model.DocumentReminder{
		ID:                ReminderID(doc.ID, reminderType, sequence),
		MissingDocumentID: doc.ID,
		DocumentType:      doc.DocumentType,
		Source:            doc.Source,
		ReminderType:      reminderType,
		Urgency:           UrgencyFor(doc, now),
		Title:             Title(reminderType, doc.DocumentType, doc.Source),
		Message:           Message(reminderType, doc),
		Actions:           Actions(reminderType),
		ScheduledFor:      ScheduledFor(doc, reminderType, settings, sent, now),
		Channels:          append([]model.Channel(nil), channels...),
		ExpectedDate:      doc.ExpectedDate,
		DaysOverdue:       doc.DaysOverdue,
		Sequence:          sequence,
	}
}

// ReminderID derives a stable identifier for the n-th reminder of a document.
func ReminderID(missingID int64, reminderType model.ReminderType, sequence int) string {
	name := fmt.Sprintf("%d/%s/%d", missingID, reminderType, sequence)
	return uuid.NewSHA1(reminderNamespace, []byte(name)).String()
}

// ReminderTypeFor classifies the escalation stage of a missing document.
func ReminderTypeFor(doc *model.MissingDocument) model.ReminderType {
	switch {
	case !doc.IsMissing:
		return model.ReminderUpcoming
	case doc.DaysOverdue <= overdueMaxDays:
		return model.ReminderOverdue
	case doc.DaysOverdue <= followUpMaxDays:
		return model.ReminderFollowUp
	default:
		return model.ReminderFinalNotice
	}
}

// UrgencyFor ranks a missing document as of now.
func UrgencyFor(doc *model.MissingDocument, now time.Time) model.Urgency {
	if doc.IsMissing {
		if doc.DaysOverdue > overdueMaxDays {
			return model.UrgencyCritical
		}
		return model.UrgencyHigh
	}

	daysUntil := common.DaysBetween(now, doc.ExpectedDate)
	switch {
	case daysUntil <= 1:
		return model.UrgencyHigh
	case daysUntil <= 3:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

// ScheduledFor decides when a reminder should go out. Upcoming reminders
// target the primary before-due rung, the rest the primary after-due rung.
// When earlier reminders were already sent the time advances to the next
// rung of the ladder. The result is never before now.
func ScheduledFor(doc *model.MissingDocument, reminderType model.ReminderType, settings model.ReminderSettings, sent int, now time.Time) time.Time {
	var scheduled time.Time
	if reminderType == model.ReminderUpcoming {
		scheduled = common.AddDays(doc.ExpectedDate, -settings.PrimaryDaysBefore())
	} else {
		scheduled = common.AddDays(doc.ExpectedDate, settings.PrimaryDaysAfter())
	}

	if sent > 0 {
		if next := CalculateNextReminderDate(doc, settings, sent); next != nil && next.After(scheduled) {
			scheduled = *next
		}
	}

	if scheduled.Before(now) {
		return now
	}
	return scheduled
}

// CalculateNextReminderDate returns the date of the reminder that follows
// reminderCount sends, walking the before-due rungs then the after-due rungs.
// It returns nil once the ladder or the reminder budget is exhausted. A
// MaxReminders of zero is a zero budget, as in GenerateReminders.
func CalculateNextReminderDate(doc *model.MissingDocument, settings model.ReminderSettings, reminderCount int) *time.Time {
	if reminderCount < 0 {
		reminderCount = 0
	}
	if reminderCount >= settings.MaxReminders {
		return nil
	}

	ladder := reminderLadder(doc.ExpectedDate, settings)
	if reminderCount >= len(ladder) {
		return nil
	}
	next := ladder[reminderCount]
	return &next
}

func reminderLadder(expected time.Time, settings model.ReminderSettings) []time.Time {
	before := uniqueSorted(settings.ReminderDaysBefore)
	after := uniqueSorted(settings.ReminderDaysAfter)

	ladder := make([]time.Time, 0, len(before)+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		ladder = append(ladder, common.AddDays(expected, -before[i]))
	}
	for _, d := range after {
		ladder = append(ladder, common.AddDays(expected, d))
	}
	return ladder
}

func uniqueSorted(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
