package models

import (
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// IneligibilityReason names the first failing clause of the extension
// eligibility rule.
type IneligibilityReason string

const (
	ReasonNone         IneligibilityReason = ""
	ReasonCompleted    IneligibilityReason = "task is already completed"
	ReasonNoDueDate    IneligibilityReason = "task has no due date"
	ReasonOverdue      IneligibilityReason = "task is already overdue"
	ReasonBeyondWindow IneligibilityReason = "due date is beyond the 3-day extension window"
)

// extensionWindowDays is how far ahead a due date may lie and still be
// extended.
const extensionWindowDays = 3

// ExtensionIneligibility evaluates the extension rule for today and returns
// ReasonNone when the task may be extended. Clauses are checked in order:
// completed, missing due date, overdue, too far ahead. The window is
// today-1 < due < today+4, so a task due yesterday is excluded and a task
// due in three days is included.
func (t *Task) ExtensionIneligibility(today time.Time) IneligibilityReason {
	today = timex.DateOf(today)
	switch {
	case t.Completed:
		return ReasonCompleted
	case !t.HasDueDate():
		return ReasonNoDueDate
	case !t.DueDate.After(timex.AddDays(today, -1)):
		return ReasonOverdue
	case !t.DueDate.Before(timex.AddDays(today, extensionWindowDays+1)):
		return ReasonBeyondWindow
	}
	return ReasonNone
}

// IsEligibleForExtension reports whether the task may be extended today.
func (t *Task) IsEligibleForExtension(today time.Time) bool {
	return t.ExtensionIneligibility(today) == ReasonNone
}
