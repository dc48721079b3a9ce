package model

import (
	"fmt"
	"time"
)

// ReminderSettings configures reminders for one document type.
type ReminderSettings struct {
	UpdatedAt          time.Time
	DocumentType       DocumentType
	ReminderDaysBefore []int // rungs before the expected date, e.g. [7, 3]
	ReminderDaysAfter  []int // rungs after the expected date, e.g. [1, 7, 14]
	ChannelsEnabled    []Channel
	MaxReminders       int // total sends per missing document; zero sends none
	Enabled            bool
	IsDefault          bool // true when no stored row exists for the type
}

// DefaultReminderSettings returns the built-in settings for a document type.
func DefaultReminderSettings(docType DocumentType) ReminderSettings {
	return ReminderSettings{
		DocumentType:       docType,
		Enabled:            true,
		ReminderDaysBefore: []int{3},
		ReminderDaysAfter:  []int{1, 7, 14},
		MaxReminders:       3,
		ChannelsEnabled:    []Channel{ChannelApp},
		IsDefault:          true,
	}
}

// PrimaryDaysBefore is the earliest before-due rung, or 0 when none is set.
func (s ReminderSettings) PrimaryDaysBefore() int {
	largest := 0
	for _, d := range s.ReminderDaysBefore {
		if d > largest {
			largest = d
		}
	}
	return largest
}

// PrimaryDaysAfter is the earliest after-due rung, or 0 when none is set.
func (s ReminderSettings) PrimaryDaysAfter() int {
	if len(s.ReminderDaysAfter) == 0 {
		return 0
	}
	smallest := s.ReminderDaysAfter[0]
	for _, d := range s.ReminderDaysAfter[1:] {
		if d < smallest {
			smallest = d
		}
	}
	return smallest
}

// Validate ensures the settings are usable.
func (s ReminderSettings) Validate() error {
	if s.DocumentType == "" {
		return fmt.Errorf("document type is required")
	}
	if s.MaxReminders < 0 {
		return fmt.Errorf("max reminders cannot be negative")
	}
	for _, d := range s.ReminderDaysBefore {
		if d < 0 {
			return fmt.Errorf("reminder days before cannot be negative")
		}
	}
	for _, d := range s.ReminderDaysAfter {
		if d < 0 {
			return fmt.Errorf("reminder days after cannot be negative")
		}
	}
	for _, c := range s.ChannelsEnabled {
		if !c.Valid() {
			return fmt.Errorf("invalid channel %q", c)
		}
	}
	return nil
}
