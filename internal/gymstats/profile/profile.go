package profile

import (
	"slices"
	"time"

	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/gymstats/badges"
	"github.com/2beens/coachai/internal/gymstats/series"
)

const (
	DefaultDateOfBirth calendar.Date = "1990-01-01"
	DefaultWeight                    = 75.0
)

// Profile is the single local user aggregate. It is treated as a value:
// every mutation returns a new Profile and leaves its input untouched.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`

	DateOfBirth calendar.Date `json:"date_of_birth"`
	Weight      float64       `json:"weight"`

	Streak         int         `json:"streak"`
	LastActivityAt *time.Time  `json:"last_activity_at"`
	TotalCalories  float64     `json:"total_calories"`
	TotalHours     float64     `json:"total_hours"`
	Badges         []badges.ID `json:"badges"`

	DailyCalories series.Series `json:"daily_calories"`
	WeightHistory series.Series `json:"weight_history"`

	ScheduledWorkouts []ScheduledWorkout `json:"scheduled_workouts"`
	ManualActivities  []ManualActivity   `json:"manual_activities"`

	// Program is derived from age and weight, see ProgramFor.
	Program string `json:"program"`
}

type Intensity string

const (
	IntensityLow    Intensity = "Low"
	IntensityMedium Intensity = "Medium"
	IntensityHigh   Intensity = "High"
)

// ManualActivity is a workout entered by hand. Entries are append-only.
type ManualActivity struct {
	ID              string        `json:"id"`
	Date            calendar.Date `json:"date" validate:"required,datetime=2006-01-02"`
	Exercise        string        `json:"exercise" validate:"notblank"`
	DurationSeconds float64       `json:"duration_sec" validate:"finite,gt=0"`
	Calories        float64       `json:"calories" validate:"finite,gt=0"`
	Intensity       Intensity     `json:"intensity,omitempty" validate:"omitempty,oneof=Low Medium High"`
}

// ScheduledWorkout is a planned workout. Whether it is upcoming is a query, not a stored property.
type ScheduledWorkout struct {
	Date     calendar.Date `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string        `json:"time" validate:"required,datetime=15:04"`
	Exercise string        `json:"exercise" validate:"notblank"`
}

// At returns the moment the workout starts in loc.
func (w ScheduledWorkout) At(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(calendar.DateLayout+" 15:04", string(w.Date)+" "+w.Time, loc)
}

// Age is derived from the date of birth in the location of now.
func (p Profile) Age(now time.Time) int {
	dob, err := p.DateOfBirth.Time(now.Location())
	if err != nil {
		return 0
	}

	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// LastActivityDate is the calendar day of the last activity in loc, nil when there was none.
func (p Profile) LastActivityDate(loc *time.Location) *calendar.Date {
	if p.LastActivityAt == nil {
		return nil
	}
	d := calendar.DateOf(*p.LastActivityAt, loc)
	return &d
}

// Clone returns a deep copy, safe to mutate without touching p.
func (p Profile) Clone() Profile {
	c := p
	if p.LastActivityAt != nil {
		at := *p.LastActivityAt
		c.LastActivityAt = &at
	}
	c.Badges = slices.Clone(p.Badges)
	c.DailyCalories = p.DailyCalories.Clone()
	c.WeightHistory = p.WeightHistory.Clone()
	c.ScheduledWorkouts = slices.Clone(p.ScheduledWorkouts)
	c.ManualActivities = slices.Clone(p.ManualActivities)
	return c
}

// ProgramFor derives the training program label from age and weight.
func ProgramFor(age int, weight float64) string {
	switch {
	case age > 60:
		return "Mobility & Joint Health Fundamentals"
	case age < 18:
		return "Youth Athletic Foundation"
	case weight > 100:
		return "Low Impact Conditioning & Stability"
	case age > 40:
		return "Functional Strength & Recovery"
	default:
		return "High Performance Conditioning"
	}
}
