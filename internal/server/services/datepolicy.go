package services

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// DatePolicy holds the date arithmetic and window checks used by the
// extension engine. It has no side effects; "today" comes from the clock.
type DatePolicy struct {
	clock timex.Clock
}

func NewDatePolicy(clock timex.Clock) *DatePolicy {
	return &DatePolicy{clock: clock}
}

// Today is the current calendar date.
func (p *DatePolicy) Today() time.Time {
	return timex.Today(p.clock)
}

// IsValidExtensionDays reports n > 0. The upper cap is enforced by the
// extension service.
func (p *DatePolicy) IsValidExtensionDays(n int) bool {
	return n > 0
}

// CalculateNewDueDate returns currentDue moved forward by n days.
func (p *DatePolicy) CalculateNewDueDate(currentDue time.Time, n int) (time.Time, error) {
	if currentDue.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %s", common.ErrorExtensionNotAllowed, models.ReasonNoDueDate)
	}
	if !p.IsValidExtensionDays(n) {
		return time.Time{}, fmt.Errorf("%w: extension days must be positive", common.ErrorInvalidExtension)
	}
	return timex.AddDays(currentDue, n), nil
}

// IsDueWithinDays reports today <= date <= today+n. A zero date is never
// within the window.
func (p *DatePolicy) IsDueWithinDays(date time.Time, n int) bool {
	if date.IsZero() {
		return false
	}
	today := p.Today()
	date = timex.DateOf(date)
	return !date.Before(today) && !date.After(timex.AddDays(today, n))
}

// Ineligibility names the reason task cannot be extended today, or
// models.ReasonNone.
func (p *DatePolicy) Ineligibility(task *models.Task) models.IneligibilityReason {
	return task.ExtensionIneligibility(p.Today())
}

func (p *DatePolicy) IsEligible(task *models.Task) bool {
	return p.Ineligibility(task) == models.ReasonNone
}
