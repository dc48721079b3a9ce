package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_ReminderHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	doc := createTestMissingDocument(t, store, createTestPattern(t, store, "chase"), 13)

	count, err := store.GetReminderCount(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	record := func(sequence int, channel model.Channel) {
		t.Helper()
		require.NoError(t, store.RecordReminderSent(ctx, &model.ReminderHistory{
			MissingDocumentID: doc.ID,
			ReminderID:        "r-1",
			ReminderType:      model.ReminderFollowUp,
			Sequence:          sequence,
			Channel:           channel,
			SentAt:            day(2026, time.February, 28),
		}))
	}

	record(1, model.ChannelApp)
	record(1, model.ChannelEmail)
	record(1, model.ChannelApp) // duplicate dispatch is ignored

	count, err = store.GetReminderCount(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one reminder over two channels counts once")

	record(2, model.ChannelApp)
	count, err = store.GetReminderCount(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sent, err := store.HasReminderBeenSent(ctx, doc.ID, 1, model.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = store.HasReminderBeenSent(ctx, doc.ID, 2, model.ChannelEmail)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSQLiteStorage_RecordReminderSentInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		entry   *model.ReminderHistory
		wantErr error
		name    string
	}{
		{name: "nil entry", entry: nil, wantErr: ErrNilParameter},
		{
			name:    "zero sequence",
			entry:   &model.ReminderHistory{MissingDocumentID: 1, Channel: model.ChannelApp, ReminderType: model.ReminderOverdue},
			wantErr: ErrInvalidHistory,
		},
		{
			name:    "bad channel",
			entry:   &model.ReminderHistory{MissingDocumentID: 1, Sequence: 1, Channel: "fax", ReminderType: model.ReminderOverdue},
			wantErr: ErrInvalidChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.RecordReminderSent(ctx, tt.entry), tt.wantErr)
		})
	}
}
