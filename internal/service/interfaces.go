// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// UploadFilter defines filtering options for upload queries.
type UploadFilter struct {
	Since        *time.Time
	Until        *time.Time
	DocumentType model.DocumentType
	Source       string
	Limit        int
}

// UploadStore persists the upload feed.
type UploadStore interface {
	SaveUploads(ctx context.Context, uploads []model.UploadRecord) error
	GetUploads(ctx context.Context, filter UploadFilter) ([]model.UploadRecord, error)
}

// PatternStore persists detected patterns keyed by (document type, source).
type PatternStore interface {
	// SavePattern upserts by identity and appends any PatternChanges that do
	// not have an ID yet.
	SavePattern(ctx context.Context, pattern *model.DocumentPattern) error
	GetPattern(ctx context.Context, docType model.DocumentType, source string) (*model.DocumentPattern, error)
	GetPatternByID(ctx context.Context, id int64) (*model.DocumentPattern, error)
	GetPatterns(ctx context.Context) ([]model.DocumentPattern, error)
}

// MissingDocumentStore persists missing documents and their status.
type MissingDocumentStore interface {
	// SaveMissingDocument upserts by (pattern, expected date). The stored
	// status is preserved on update.
	SaveMissingDocument(ctx context.Context, doc *model.MissingDocument) error
	GetMissingDocument(ctx context.Context, id int64) (*model.MissingDocument, error)
	GetOpenMissingDocuments(ctx context.Context) ([]model.MissingDocument, error)
	GetMissingDocuments(ctx context.Context, statuses ...model.MissingStatus) ([]model.MissingDocument, error)
	UpdateMissingDocumentStatus(ctx context.Context, id int64, status model.MissingStatus) error
	SnoozeMissingDocument(ctx context.Context, id int64, until time.Time) error
	// ResolveMissingDocuments marks open rows of the pattern whose expected
	// date is on or before uploadedAt as uploaded.
	ResolveMissingDocuments(ctx context.Context, patternID int64, uploadedAt time.Time) (int, error)
}

// SettingsStore reads and writes per-type reminder settings. Absent rows
// yield model.DefaultReminderSettings, never an error.
type SettingsStore interface {
	GetReminderSettings(ctx context.Context, docType model.DocumentType) (model.ReminderSettings, error)
	SaveReminderSettings(ctx context.Context, settings model.ReminderSettings) error
	GetAllReminderSettings(ctx context.Context) ([]model.ReminderSettings, error)
}

// ReminderHistoryStore is the append-only log of reminder dispatches.
type ReminderHistoryStore interface {
	RecordReminderSent(ctx context.Context, entry *model.ReminderHistory) error
	// GetReminderCount returns the number of distinct reminders sent for a
	// missing document, regardless of how many channels each went out on.
	GetReminderCount(ctx context.Context, missingDocumentID int64) (int, error)
	HasReminderBeenSent(ctx context.Context, missingDocumentID int64, sequence int, channel model.Channel) (bool, error)
}

// NotificationStore backs the in-app inbox channel.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *model.Notification) error
	GetNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, at time.Time) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	UploadStore
	PatternStore
	MissingDocumentStore
	SettingsStore
	ReminderHistoryStore
	NotificationStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Clock returns the current time. Detection and reminder logic never read the
// system clock directly.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
