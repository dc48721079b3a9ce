package model

import "time"

// ReminderType is the escalation stage of a reminder. It is derived from the
// current state of a missing document on every pass and never stored.
type ReminderType string

// Reminder type constants.
const (
	ReminderUpcoming    ReminderType = "upcoming"
	ReminderOverdue     ReminderType = "overdue"
	ReminderFollowUp    ReminderType = "follow_up"
	ReminderFinalNotice ReminderType = "final_notice"
)

// Valid reports whether t is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderUpcoming, ReminderOverdue, ReminderFollowUp, ReminderFinalNotice:
		return true
	default:
		return false
	}
}

// Urgency ranks how soon the user should act on a reminder.
type Urgency string

// Urgency constants.
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is one of the known urgencies.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	default:
		return false
	}
}

// ActionType is something the user can do from a reminder.
type ActionType string

// Action type constants.
const (
	ActionUpload  ActionType = "upload"
	ActionView    ActionType = "view"
	ActionSnooze  ActionType = "snooze"
	ActionDismiss ActionType = "dismiss"
)

// DefaultSnoozeDays is how far a snooze action pushes the next reminder.
const DefaultSnoozeDays = 3

// ReminderAction is a user-facing action attached to a reminder.
type ReminderAction struct {
	Type       ActionType
	Label      string
	SnoozeDays int
}

// Channel is a notification transport.
type Channel string

// Channel constants.
const (
	ChannelApp   Channel = "app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelApp, ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}

// DocumentReminder is an ephemeral notification derived from a missing document.
type DocumentReminder struct {
	ScheduledFor      time.Time
	ExpectedDate      time.Time
	ID                string
	DocumentType      DocumentType
	Source            string
	ReminderType      ReminderType
	Urgency           Urgency
	Title             string
	Message           string
	Actions           []ReminderAction
	Channels          []Channel
	MissingDocumentID int64
	DaysOverdue       int
	Sequence          int
}

// HasAction reports whether the reminder offers the given action.
func (r *DocumentReminder) HasAction(action ActionType) bool {
	for _, a := range r.Actions {
		if a.Type == action {
			return true
		}
	}
	return false
}

// ReminderHistory records one dispatch of a reminder over one channel.
type ReminderHistory struct {
	SentAt            time.Time
	ReminderID        string
	ReminderType      ReminderType
	Channel           Channel
	ID                int64
	MissingDocumentID int64
	Sequence          int
}

// Notification is an entry in the in-app inbox.
type Notification struct {
	CreatedAt         time.Time
	ReadAt            *time.Time
	ReminderID        string
	Title             string
	Message           string
	Urgency           Urgency
	ID                int64
	MissingDocumentID int64
}

// Deadline is an external calendar entry mirroring a missing document.
type Deadline struct {
	Date              time.Time
	EventID           string
	Title             string
	Link              string
	MissingDocumentID int64
	Created           bool // false when the entry already existed
}
