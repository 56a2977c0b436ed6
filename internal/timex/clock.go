package timex

import "time"

// Clock is the current-time source used by services.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and reports it in Location.
// A nil Location means UTC.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Today returns the calendar date of the clock's current instant.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}
