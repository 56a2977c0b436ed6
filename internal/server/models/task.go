// Package models holds the server-side domain entities.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

const (
	TitleMaxLen       = 255
	DescriptionMaxLen = 1000
)

// Task is a to-do record owned by exactly one account.
//
// DueDate and OriginalDueDate are calendar dates (midnight UTC, see
// timex.DateOf). A zero DueDate means the task has no due date. An empty
// Description means none was given.
//
// Completion and extension state are only changed through methods so that
// CompletedAt tracks Completed and OriginalDueDate is frozen exactly once.
type Task struct {
	ID              string
	AccountID       string
	Title           string
	Description     string
	DueDate         time.Time
	Completed       bool
	CompletedAt     *time.Time
	CreatedAt       time.Time
	ExtensionCount  int
	LastExtendedAt  *time.Time
	OriginalDueDate *time.Time
}

// NewTask builds an incomplete, never-extended task for accountID.
// CreatedAt and ID are assigned by the store.
func NewTask(accountID, title, description string, dueDate time.Time) *Task {
	t := &Task{AccountID: accountID}
	t.ApplyEdit(title, description, dueDate)
	return t
}

// ValidateTaskFields checks user-editable fields before any persistence
// access.
func ValidateTaskFields(title, description string, dueDate time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return fmt.Errorf("%w: title must not exceed %d characters", common.ErrorValidation, TitleMaxLen)
	}
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		return fmt.Errorf("%w: description must not exceed %d characters", common.ErrorValidation, DescriptionMaxLen)
	}
	if dueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", common.ErrorValidation)
	}
	return nil
}

// HasDueDate reports whether a due date is set.
func (t *Task) HasDueDate() bool { return !t.DueDate.IsZero() }

// ApplyEdit overwrites title, description and due date. Completion and
// extension tracking are left untouched.
func (t *Task) ApplyEdit(title, description string, dueDate time.Time) {
	t.Title = strings.TrimSpace(title)
	t.Description = description
	if dueDate.IsZero() {
		t.DueDate = time.Time{}
	} else {
		t.DueDate = timex.DateOf(dueDate)
	}
}

// SetCompleted marks the task done or not done. Marking done keeps an
// existing completion timestamp; marking not done clears it.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if !done {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
}

// ToggleCompletion flips the completion flag.
func (t *Task) ToggleCompletion(now time.Time) {
	t.SetCompleted(!t.Completed, now)
}

// ExtendDueDate moves the due date forward by days. The first extension
// freezes the previous due date in OriginalDueDate.
func (t *Task) ExtendDueDate(days int, now time.Time) error {
	if days <= 0 {
		return fmt.Errorf("%w: extension days must be positive", common.ErrorInvalidExtension)
	}
	if !t.HasDueDate() {
		return fmt.Errorf("%w: %s", common.ErrorExtensionNotAllowed, ReasonNoDueDate)
	}
	if t.OriginalDueDate == nil {
		original := t.DueDate
		t.OriginalDueDate = &original
	}
	t.DueDate = timex.AddDays(t.DueDate, days)
	t.ExtensionCount++
	t.LastExtendedAt = &now
	return nil
}

// TotalExtensionDays is the net number of days the due date moved since
// the first extension.
func (t *Task) TotalExtensionDays() int {
	if t.OriginalDueDate == nil || !t.HasDueDate() {
		return 0
	}
	return timex.DaysBetween(*t.OriginalDueDate, t.DueDate)
}

// IsOverdue reports whether an incomplete task is past its due date.
func (t *Task) IsOverdue(today time.Time) bool {
	return !t.Completed && t.HasDueDate() && t.DueDate.Before(timex.DateOf(today))
}

// IsDueSoon reports whether an incomplete task is due within the next
// common.DueSoonWindowDays days, today included.
func (t *Task) IsDueSoon(today time.Time) bool {
	if t.Completed || !t.HasDueDate() {
		return false
	}
	limit := timex.AddDays(today, common.DueSoonWindowDays)
	return !t.DueDate.After(limit)
}

// SameEntity reports whether both values denote the same stored task.
// Tasks without an id are never the same entity as anything.
func (t *Task) SameEntity(other *Task) bool {
	if t == nil || other == nil || t.ID == "" {
		return false
	}
	return t.ID == other.ID
}
