package reminder

import (
	"fmt"

	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

const displayDateLayout = "Jan 2, 2006"

// Title renders the short heading for a reminder.
func Title(reminderType model.ReminderType, docType model.DocumentType, source string) string {
	label := docType.Label()
	switch reminderType {
	case model.ReminderUpcoming:
		return fmt.Sprintf("Upcoming: %s from %s", label, source)
	case model.ReminderOverdue:
		return fmt.Sprintf("Overdue: %s from %s", label, source)
	case model.ReminderFollowUp:
		return fmt.Sprintf("Still missing: %s from %s", label, source)
	case model.ReminderFinalNotice:
		return fmt.Sprintf("Final notice: %s from %s", label, source)
	default:
		return fmt.Sprintf("%s from %s", label, source)
	}
}

// Message renders the body of a reminder. The output depends only on its
// arguments.
func Message(reminderType model.ReminderType, missing *model.MissingDocument) string {
	label := missing.DocumentType.Label()
	expected := missing.ExpectedDate.Format(displayDateLayout)
	overdue := pluralDays(missing.DaysOverdue)

	switch reminderType {
	case model.ReminderUpcoming:
		return fmt.Sprintf("Your %s from %s is expected on %s.", label, missing.Source, expected)
	case model.ReminderOverdue:
		return fmt.Sprintf("Your %s from %s was expected on %s and is %s overdue. Upload it as soon as it arrives.",
			label, missing.Source, expected, overdue)
	case model.ReminderFollowUp:
		return fmt.Sprintf("Your %s from %s is still missing, %s after it was expected on %s. Upload it, or dismiss this reminder if it is not coming.",
			label, missing.Source, overdue, expected)
	case model.ReminderFinalNotice:
		return fmt.Sprintf("Your %s from %s has been missing for %s since %s. This is the last reminder for this document.",
			label, missing.Source, overdue, expected)
	default:
		return fmt.Sprintf("Your %s from %s was expected on %s.", label, missing.Source, expected)
	}
}

// Actions returns the actions offered for a reminder type. Upload and view
// are always present; anything past due can also be snoozed or dismissed.
func Actions(reminderType model.ReminderType) []model.ReminderAction {
	actions := []model.ReminderAction{
		{Type: model.ActionUpload, Label: "Upload document"},
		{Type: model.ActionView, Label: "View details"},
	}
	if reminderType == model.ReminderUpcoming {
		return actions
	}
	return append(actions,
		model.ReminderAction{
			Type:       model.ActionSnooze,
			Label:      fmt.Sprintf("Snooze %s", pluralDays(model.DefaultSnoozeDays)),
			SnoozeDays: model.DefaultSnoozeDays,
		},
		model.ReminderAction{Type: model.ActionDismiss, Label: "Dismiss"},
	)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
