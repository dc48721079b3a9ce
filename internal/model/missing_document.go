package model

import "time"

// MissingStatus tracks a missing document through its reminder lifecycle.
type MissingStatus string

// Missing document status constants.
const (
	MissingStatusPending   MissingStatus = "pending"
	MissingStatusReminded  MissingStatus = "reminded"
	MissingStatusUploaded  MissingStatus = "uploaded"
	MissingStatusDismissed MissingStatus = "dismissed"
)

// Valid reports whether s is one of the known statuses.
func (s MissingStatus) Valid() bool {
	switch s {
	case MissingStatusPending, MissingStatusReminded, MissingStatusUploaded, MissingStatusDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further reminders may be sent.
func (s MissingStatus) IsTerminal() bool {
	switch s {
	case MissingStatusUploaded, MissingStatusDismissed:
		return true
	case MissingStatusPending, MissingStatusReminded:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Terminal states never move; reminded never goes back to pending.
func (s MissingStatus) CanTransitionTo(next MissingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case MissingStatusPending:
		return next == MissingStatusReminded || next.IsTerminal()
	case MissingStatusReminded:
		return next.IsTerminal()
	case MissingStatusUploaded, MissingStatusDismissed:
		return false
	default:
		return false
	}
}

// MissingDocument is one expected cycle of a pattern that has not arrived yet.
type MissingDocument struct {
	ExpectedDate      time.Time
	GracePeriodEnd    time.Time
	DetectedAt        time.Time
	LastUploadDate    *time.Time
	SnoozedUntil      *time.Time
	DocumentType      DocumentType
	Source            string
	Confidence        ConfidenceLevel
	Status            MissingStatus
	ID                int64
	PatternID         int64
	DaysOverdue       int
	HistoricalUploads int
	IsMissing         bool
}

// IsSnoozed reports whether reminders are suppressed at now.
func (m *MissingDocument) IsSnoozed(now time.Time) bool {
	return m.SnoozedUntil != nil && now.Before(*m.SnoozedUntil)
}
