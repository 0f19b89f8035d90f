package models

import (
	"fmt"
	"time"
)

// Phase is the betting-window state observed at a given instant. It is never
// stored; resolved and cancelled bets report their status instead.
type Phase string

const (
	PhaseUpcoming  Phase = "upcoming"
	PhaseOpen      Phase = "open"
	PhaseClosed    Phase = "closed"
	PhaseResolved  Phase = "resolved"
	PhaseCancelled Phase = "cancelled"
)

// ParsePhase accepts any phase name, used for list filters
func ParsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseUpcoming, PhaseOpen, PhaseClosed, PhaseResolved, PhaseCancelled:
		return p, true
	}
	return "", false
}

// ClockTime is a wall-clock time of day with minute precision ("HH:MM")
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" in 24-hour form
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Before reports whether c is strictly earlier in the day than other
func (c ClockTime) Before(other ClockTime) bool {
	return c.minutes() < other.minutes()
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors c to the calendar day of date in loc
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// EvaluatePhase computes the phase of a bet at now. Start is inclusive, end exclusive.
// It has no side effects and must be called again for every decision, since two
// calls around a window boundary can legitimately disagree.
func EvaluatePhase(status BetStatus, date time.Time, start, end ClockTime, now time.Time, loc *time.Location) Phase {
	switch status {
	case BetStatusResolved:
		return PhaseResolved
	case BetStatusCancelled:
		return PhaseCancelled
	}

	opensAt := start.On(date, loc)
	closesAt := end.On(date, loc)

	switch {
	case now.Before(opensAt):
		return PhaseUpcoming
	case now.Before(closesAt):
		return PhaseOpen
	default:
		return PhaseClosed
	}
}
