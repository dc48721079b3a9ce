package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderTypeFor(t *testing.T) {
	tests := []struct {
		name      string
		want      model.ReminderType
		overdue   int
		isMissing bool
	}{
		{name: "not yet due", overdue: 0, isMissing: false, want: model.ReminderUpcoming},
		{name: "inside grace", overdue: 3, isMissing: false, want: model.ReminderUpcoming},
		{name: "3 days overdue", overdue: 3, isMissing: true, want: model.ReminderOverdue},
		{name: "7 days overdue", overdue: 7, isMissing: true, want: model.ReminderOverdue},
		{name: "10 days overdue", overdue: 10, isMissing: true, want: model.ReminderFollowUp},
		{name: "14 days overdue", overdue: 14, isMissing: true, want: model.ReminderFollowUp},
		{name: "20 days overdue", overdue: 20, isMissing: true, want: model.ReminderFinalNotice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := missingDoc(1, day(2026, time.February, 15), tt.overdue, tt.isMissing)
			assert.Equal(t, tt.want, ReminderTypeFor(&doc))
		})
	}
}

func TestUrgencyFor(t *testing.T) {
	now := day(2026, time.February, 10)
	tests := []struct {
		expected  time.Time
		name      string
		want      model.Urgency
		overdue   int
		isMissing bool
	}{
		{name: "missing and long overdue", expected: day(2026, 1, 20), overdue: 21, isMissing: true, want: model.UrgencyCritical},
		{name: "missing recently", expected: day(2026, 2, 1), overdue: 9, isMissing: true, want: model.UrgencyCritical},
		{name: "missing within a week", expected: day(2026, 2, 4), overdue: 6, isMissing: true, want: model.UrgencyHigh},
		{name: "due tomorrow", expected: day(2026, 2, 11), want: model.UrgencyHigh},
		{name: "due in three days", expected: day(2026, 2, 13), want: model.UrgencyMedium},
		{name: "due in ten days", expected: day(2026, 2, 20), want: model.UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := missingDoc(1, tt.expected, tt.overdue, tt.isMissing)
			assert.Equal(t, tt.want, UrgencyFor(&doc, now))
		})
	}
}

func TestGenerateReminders_EndToEndFollowUp(t *testing.T) {
	now := day(2026, time.February, 28)
	gen := NewGenerator(&fakeSettings{}, newFakeHistory(), fixedClock(now))

	doc := missingDoc(7, day(2026, time.February, 15), 13, true)
	batch, err := gen.GenerateReminders(context.Background(), []model.MissingDocument{doc}, GenerateOptions{RespectSettings: true})
	require.NoError(t, err)
	require.Len(t, batch.Reminders, 1)

	r := batch.Reminders[0]
	assert.Equal(t, model.ReminderFollowUp, r.ReminderType)
	assert.Equal(t, model.UrgencyCritical, r.Urgency)
	for _, action := range []model.ActionType{model.ActionUpload, model.ActionView, model.ActionSnooze, model.ActionDismiss} {
		assert.True(t, r.HasAction(action), "missing action %s", action)
	}
	assert.Equal(t, 1, r.Sequence)
	assert.True(t, r.ScheduledFor.Equal(now), "past-due slot fires immediately")
	assert.Equal(t, []model.Channel{model.ChannelApp}, r.Channels)
	assert.Equal(t, "Still missing: Bank Statement from chase", r.Title)
	assert.Equal(t,
		"Your Bank Statement from chase is still missing, 13 days after it was expected on Feb 15, 2026. Upload it, or dismiss this reminder if it is not coming.",
		r.Message)

	assert.Equal(t, now, batch.GeneratedAt)
	assert.Equal(t, 1, batch.TotalPending)
	assert.Equal(t, 1, batch.TotalReminders)
	assert.Equal(t, 1, batch.ByType[model.ReminderFollowUp])
	assert.Equal(t, 1, batch.ByUrgency[model.UrgencyCritical])
}

func TestGenerateReminders_UpcomingSchedule(t *testing.T) {
	now := day(2026, time.February, 5)
	gen := NewGenerator(&fakeSettings{}, newFakeHistory(), fixedClock(now))

	doc := missingDoc(1, day(2026, time.February, 15), 0, false)
	batch, err := gen.GenerateReminders(context.Background(), []model.MissingDocument{doc}, GenerateOptions{RespectSettings: true})
	require.NoError(t, err)
	require.Len(t, batch.Reminders, 1)

	r := batch.Reminders[0]
	assert.Equal(t, model.ReminderUpcoming, r.ReminderType)
	assert.Equal(t, model.UrgencyLow, r.Urgency)
	assert.True(t, r.ScheduledFor.Equal(day(2026, time.February, 12)), "three days before expected")
	assert.False(t, r.HasAction(model.ActionSnooze))
	assert.False(t, r.HasAction(model.ActionDismiss))
	assert.Equal(t, "Your Bank Statement from chase is expected on Feb 15, 2026.", r.Message)
}

func TestGenerateReminders_RespectsBudget(t *testing.T) {
	now := day(2026, time.February, 28)
	history := newFakeHistory()
	gen := NewGenerator(&fakeSettings{}, history, fixedClock(now))
	notifier := &fakeNotifier{}
	proc := NewProcessor(notifier, &fakeStatus{}, history, fixedClock(now))

	doc := missingDoc(3, day(2026, time.February, 1), 27, true)
	maxReminders := model.DefaultReminderSettings(doc.DocumentType).MaxReminders

	for pass := 0; pass < maxReminders+3; pass++ {
		batch, err := gen.GenerateReminders(context.Background(), []model.MissingDocument{doc}, GenerateOptions{RespectSettings: true})
		require.NoError(t, err)
		proc.ProcessDueReminders(context.Background(), batch.Reminders, ProcessOptions{})
	}

	count, err := history.GetReminderCount(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, maxReminders, count)
	assert.Len(t, notifier.sent, maxReminders)
}

func TestGenerateReminders_Gates(t *testing.T) {
	now := day(2026, time.February, 28)
	disabled := model.DefaultReminderSettings(model.DocumentTypeBankStatement)
	disabled.Enabled = false
	settings := &fakeSettings{byType: map[model.DocumentType]model.ReminderSettings{
		model.DocumentTypeBankStatement: disabled,
	}}
	gen := NewGenerator(settings, newFakeHistory(), fixedClock(now))

	doc := missingDoc(1, day(2026, time.February, 15), 13, true)

	batch, err := gen.GenerateReminders(context.Background(), []model.MissingDocument{doc}, GenerateOptions{RespectSettings: true})
	require.NoError(t, err)
	assert.Empty(t, batch.Reminders)
	assert.Equal(t, 1, batch.TotalPending)

	batch, err = gen.GenerateReminders(context.Background(), []model.MissingDocument{doc}, GenerateOptions{RespectSettings: false})
	require.NoError(t, err)
	assert.Len(t, batch.Reminders, 1)
}

func TestGenerateReminders_SkipsTerminalAndSnoozed(t *testing.T) {
	now := day(2026, time.February, 28)
	gen := NewGenerator(nil, newFakeHistory(), fixedClock(now))

	uploaded := missingDoc(1, day(2026, time.February, 15), 13, true)
	uploaded.Status = model.MissingStatusUploaded
	snoozed := missingDoc(2, day(2026, time.February, 15), 13, true)
	until := now.AddDate(0, 0, model.DefaultSnoozeDays)
	snoozed.SnoozedUntil = &until
	open := missingDoc(3, day(2026, time.February, 15), 13, true)
	open.Status = model.MissingStatusReminded

	batch, err := gen.GenerateReminders(context.Background(),
		[]model.MissingDocument{uploaded, snoozed, open}, GenerateOptions{RespectSettings: true})
	require.NoError(t, err)
	require.Len(t, batch.Reminders, 1)
	assert.Equal(t, int64(3), batch.Reminders[0].MissingDocumentID)
	assert.Equal(t, 2, batch.TotalPending)
}

func TestGenerateReminders_CalendarOnlyForActionableConfidence(t *testing.T) {
	now := day(2026, time.February, 28)
	gen := NewGenerator(nil, newFakeHistory(), fixedClock(now))

	high := missingDoc(1, day(2026, time.February, 15), 13, true)
	low := missingDoc(2, day(2026, time.February, 15), 13, true)
	low.Confidence = model.ConfidenceLow

	cal := &fakeCalendar{}
	batch, err := gen.GenerateReminders(context.Background(),
		[]model.MissingDocument{high, low}, GenerateOptions{Calendar: cal})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, cal.calls)
	assert.Len(t, batch.Deadlines, 1)

	failing := &fakeCalendar{err: errFake}
	batch, err = gen.GenerateReminders(context.Background(),
		[]model.MissingDocument{high}, GenerateOptions{Calendar: failing})
	require.NoError(t, err, "calendar failures are not fatal")
	assert.Len(t, batch.Reminders, 1)
	assert.Empty(t, batch.Deadlines)
}

func TestGenerateReminders_SettingsError(t *testing.T) {
	gen := NewGenerator(&fakeSettings{err: errFake}, newFakeHistory(), fixedClock(day(2026, 2, 28)))
	_, err := gen.GenerateReminders(context.Background(),
		[]model.MissingDocument{missingDoc(1, day(2026, 2, 15), 13, true)}, GenerateOptions{})
	assert.ErrorIs(t, err, errFake)
}

func TestCalculateNextReminderDate(t *testing.T) {
	expected := day(2026, time.February, 15)
	doc := missingDoc(1, expected, 0, false)
	settings := model.ReminderSettings{
		DocumentType:       model.DocumentTypeBankStatement,
		ReminderDaysBefore: []int{3, 7},
		ReminderDaysAfter:  []int{7, 1},
		MaxReminders:       10,
	}

	want := []time.Time{
		day(2026, time.February, 8),
		day(2026, time.February, 12),
		day(2026, time.February, 16),
		day(2026, time.February, 22),
	}
	for count, w := range want {
		got := CalculateNextReminderDate(&doc, settings, count)
		require.NotNil(t, got, "rung %d", count)
		assert.True(t, got.Equal(w), "rung %d: got %s want %s", count, got, w)
	}
	assert.Nil(t, CalculateNextReminderDate(&doc, settings, len(want)), "ladder exhausted")

	settings.MaxReminders = 2
	assert.Nil(t, CalculateNextReminderDate(&doc, settings, 2), "budget exhausted")

	settings.MaxReminders = 0
	assert.Nil(t, CalculateNextReminderDate(&doc, settings, 0), "zero budget sends nothing")
}

func TestScheduledFor_AdvancesAlongLadder(t *testing.T) {
	expected := day(2026, time.February, 15)
	doc := missingDoc(1, expected, 3, true)
	settings := model.DefaultReminderSettings(doc.DocumentType)
	now := day(2026, time.February, 18)

	// First after-due reminder is already past, so it fires now.
	assert.True(t, ScheduledFor(&doc, model.ReminderOverdue, settings, 0, now).Equal(now))
	// After two sends the next rung is expected+7.
	assert.True(t, ScheduledFor(&doc, model.ReminderOverdue, settings, 2, now).Equal(day(2026, time.February, 22)))
}

func TestReminderID_Deterministic(t *testing.T) {
	a := ReminderID(1, model.ReminderOverdue, 1)
	assert.Equal(t, a, ReminderID(1, model.ReminderOverdue, 1))
	assert.NotEqual(t, a, ReminderID(1, model.ReminderOverdue, 2))
	assert.NotEqual(t, a, ReminderID(2, model.ReminderOverdue, 1))
}
