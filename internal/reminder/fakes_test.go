package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

var errFake = errors.New("fake failure")

type fakeSettings struct {
	byType map[model.DocumentType]model.ReminderSettings
	err    error
}

func (f *fakeSettings) GetReminderSettings(_ context.Context, docType model.DocumentType) (model.ReminderSettings, error) {
	if f.err != nil {
		return model.ReminderSettings{}, f.err
	}
	if s, ok := f.byType[docType]; ok {
		return s, nil
	}
	return model.DefaultReminderSettings(docType), nil
}

func (f *fakeSettings) SaveReminderSettings(_ context.Context, settings model.ReminderSettings) error {
	if f.byType == nil {
		f.byType = make(map[model.DocumentType]model.ReminderSettings)
	}
	f.byType[settings.DocumentType] = settings
	return nil
}

func (f *fakeSettings) GetAllReminderSettings(_ context.Context) ([]model.ReminderSettings, error) {
	all := make([]model.ReminderSettings, 0, len(f.byType))
	for _, s := range f.byType {
		all = append(all, s)
	}
	return all, nil
}

type historyKey struct {
	channel  model.Channel
	id       int64
	sequence int
}

type fakeHistory struct {
	sent      map[historyKey]model.ReminderHistory
	recordErr error
	mu        sync.Mutex
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{sent: make(map[historyKey]model.ReminderHistory)}
}

func (f *fakeHistory) RecordReminderSent(_ context.Context, entry *model.ReminderHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	key := historyKey{id: entry.MissingDocumentID, sequence: entry.Sequence, channel: entry.Channel}
	if _, ok := f.sent[key]; !ok {
		f.sent[key] = *entry
	}
	return nil
}

func (f *fakeHistory) GetReminderCount(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sequences := make(map[int]bool)
	for key := range f.sent {
		if key.id == id {
			sequences[key.sequence] = true
		}
	}
	return len(sequences), nil
}

func (f *fakeHistory) HasReminderBeenSent(_ context.Context, id int64, sequence int, channel model.Channel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sent[historyKey{id: id, sequence: sequence, channel: channel}]
	return ok, nil
}

type fakeNotifier struct {
	failOn map[model.Channel]bool
	sent   []model.Channel
}

func (f *fakeNotifier) Send(_ context.Context, _ *model.DocumentReminder, channel model.Channel) error {
	if f.failOn[channel] {
		return errFake
	}
	f.sent = append(f.sent, channel)
	return nil
}

type fakeStatus struct {
	statuses map[int64]model.MissingStatus
	err      error
}

func (f *fakeStatus) UpdateMissingDocumentStatus(_ context.Context, id int64, status model.MissingStatus) error {
	if f.err != nil {
		return f.err
	}
	if f.statuses == nil {
		f.statuses = make(map[int64]model.MissingStatus)
	}
	f.statuses[id] = status
	return nil
}

type fakeCalendar struct {
	err   error
	calls []int64
}

func (f *fakeCalendar) CreateDeadlineFromMissing(_ context.Context, missing *model.MissingDocument) (*model.Deadline, error) {
	f.calls = append(f.calls, missing.ID)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Deadline{MissingDocumentID: missing.ID, Date: missing.ExpectedDate, EventID: "evt", Created: true}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func missingDoc(id int64, expected time.Time, overdue int, isMissing bool) model.MissingDocument {
	return model.MissingDocument{
		ID:             id,
		PatternID:      id,
		DocumentType:   model.DocumentTypeBankStatement,
		Source:         "chase",
		ExpectedDate:   expected,
		GracePeriodEnd: expected.AddDate(0, 0, 5),
		DaysOverdue:    overdue,
		IsMissing:      isMissing,
		Confidence:     model.ConfidenceHigh,
		Status:         model.MissingStatusPending,
	}
}
