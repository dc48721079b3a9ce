package notify

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
	"github.com/Veraticus/the-paperwork-must-flow/internal/service"
)

// AppNotifier delivers reminders to the in-app inbox.
type AppNotifier struct {
	store service.NotificationStore
	clock service.Clock
}

// NewAppNotifier creates an inbox sender. A nil clock means the wall clock.
func NewAppNotifier(store service.NotificationStore, clock service.Clock) *AppNotifier {
	if clock == nil {
		clock = service.SystemClock
	}
	return &AppNotifier{store: store, clock: clock}
}

// Send writes the reminder to the inbox.
func (a *AppNotifier) Send(ctx context.Context, reminder *model.DocumentReminder) error {
	n := &model.Notification{
		MissingDocumentID: reminder.MissingDocumentID,
		ReminderID:        reminder.ID,
		Title:             reminder.Title,
		Message:           reminder.Message,
		Urgency:           reminder.Urgency,
		CreatedAt:         a.clock(),
	}
	if err := a.store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to write inbox entry: %w", err)
	}
	return nil
}
