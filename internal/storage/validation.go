// Package storage provides the data persistence layer for the paperwork application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidStatus      = errors.New("invalid missing document status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidUpload      = errors.New("invalid upload")
	ErrInvalidPattern     = errors.New("invalid pattern")
	ErrInvalidSettings    = errors.New("invalid reminder settings")
	ErrInvalidMissingDoc  = errors.New("invalid missing document")
	ErrInvalidHistory     = errors.New("invalid reminder history entry")
	ErrInvalidChannel     = errors.New("invalid channel")
	ErrPatternNotFound    = errors.New("pattern not found")
	ErrMissingDocNotFound = errors.New("missing document not found")
	ErrNotificationAbsent = errors.New("notification not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUploads validates a slice of upload records.
func validateUploads(uploads []model.UploadRecord) error {
	if uploads == nil {
		return fmt.Errorf("%w: uploads", ErrNilParameter)
	}
	if len(uploads) == 0 {
		return fmt.Errorf("%w: uploads", ErrEmptySlice)
	}

	for i, u := range uploads {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("upload at index %d: %w: %v", i, ErrInvalidUpload, err)
		}
	}
	return nil
}

// validatePattern validates a document pattern.
func validatePattern(pattern *model.DocumentPattern) error {
	if pattern == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := pattern.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return nil
}

// validateMissingDocument validates a missing document.
func validateMissingDocument(doc *model.MissingDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: missing document", ErrNilParameter)
	}
	if doc.PatternID == 0 {
		return fmt.Errorf("%w: missing pattern ID", ErrInvalidMissingDoc)
	}
	if doc.ExpectedDate.IsZero() {
		return fmt.Errorf("%w: missing expected date", ErrInvalidMissingDoc)
	}
	if doc.DaysOverdue < 0 {
		return fmt.Errorf("%w: days overdue cannot be negative", ErrInvalidMissingDoc)
	}
	if doc.Status == "" {
		doc.Status = model.MissingStatusPending
	}
	return validateStatus(doc.Status)
}

// validateStatus ensures a status is one of the known values.
func validateStatus(status model.MissingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return nil
}

// validateHistory validates a reminder history entry.
func validateHistory(entry *model.ReminderHistory) error {
	if entry == nil {
		return fmt.Errorf("%w: history entry", ErrNilParameter)
	}
	if entry.MissingDocumentID == 0 {
		return fmt.Errorf("%w: missing document ID", ErrInvalidHistory)
	}
	if entry.Sequence < 1 {
		return fmt.Errorf("%w: sequence must be positive", ErrInvalidHistory)
	}
	if !entry.Channel.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidChannel, entry.Channel)
	}
	if !entry.ReminderType.Valid() {
		return fmt.Errorf("%w: reminder type %s", ErrInvalidHistory, entry.ReminderType)
	}
	return nil
}
