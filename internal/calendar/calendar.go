// Package calendar holds the day-granularity time primitives used by every
// streak and series rule. Comparisons are made on calendar dates in a given
// location, never on raw timestamp deltas, so two events on the same day never
// count twice and a one-second gap across midnight is still a new day.
package calendar

import (
	"fmt"
	"sync"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a civil date in the "2006-01-02" form.
// Lexicographic order of valid dates equals chronological order.
type Date string

func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Date(t.In(loc).Format(DateLayout))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse date [%s]: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

func (d Date) String() string {
	return string(d)
}

func (d Date) IsValid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// Time returns the midnight at which d starts in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date to time [%s]: %w", d, err)
	}
	return t, nil
}

func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

func (d Date) Before(other Date) bool {
	return d < other
}

// DaysBetween returns the number of calendar days from a to b (negative when b precedes a).
// Both are interpreted in UTC, which keeps the difference free of DST shifts.
func DaysBetween(a, b Date) (int, error) {
	ta, err := time.Parse(DateLayout, string(a))
	if err != nil {
		return 0, fmt.Errorf("days between, parse [%s]: %w", a, err)
	}
	tb, err := time.Parse(DateLayout, string(b))
	if err != nil {
		return 0, fmt.Errorf("days between, parse [%s]: %w", b, err)
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc) == DateOf(b, loc)
}

// IsNextDay reports whether later falls on exactly the calendar day after earlier.
func IsNextDay(earlier, later time.Time, loc *time.Location) bool {
	return DateOf(earlier, loc).AddDays(1) == DateOf(later, loc)
}

func Today(clock Clock, loc *time.Location) Date {
	return DateOf(clock.Now(), loc)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a settable clock, handy when walking a profile across day boundaries.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
