package streak

import (
	"github.com/2beens/coachai/internal/calendar"
)

// State describes an event day relative to the last activity day.
type State int

const (
	// NoHistory - no activity was ever recorded
	NoHistory State = iota
	// SameDay - event falls on the last activity day
	SameDay
	// Consecutive - event falls exactly one day after the last activity day
	Consecutive
	// Broken - gap of more than one day, or the event precedes the last activity day
	Broken
)

func (s State) String() string {
	switch s {
	case NoHistory:
		return "no_history"
	case SameDay:
		return "same_day"
	case Consecutive:
		return "consecutive"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

func Classify(last *calendar.Date, event calendar.Date) State {
	if last == nil {
		return NoHistory
	}

	days, err := calendar.DaysBetween(*last, event)
	if err != nil {
		// an unreadable last activity date cannot anchor a streak
		return Broken
	}

	switch days {
	case 0:
		return SameDay
	case 1:
		return Consecutive
	default:
		return Broken
	}
}

// PassiveRecompute is run on profile load and does not register an event.
// A streak whose last day is today or yesterday is still alive, anything older decays to 0.
func PassiveRecompute(last *calendar.Date, streak int, today calendar.Date) int {
	switch Classify(last, today) {
	case SameDay, Consecutive:
		return streak
	default:
		return 0
	}
}

// ActiveIncrement is run when an activity actually happens on the event day.
func ActiveIncrement(last *calendar.Date, streak int, event calendar.Date) int {
	switch Classify(last, event) {
	case NoHistory:
		return 1
	case SameDay:
		return streak
	case Consecutive:
		return streak + 1
	default:
		return 1
	}
}
