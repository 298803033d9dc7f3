package profile

import (
	"slices"
	"time"

	"github.com/2beens/coachai/internal/apperrors"
	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/gymstats/analysis"
	"github.com/2beens/coachai/internal/gymstats/badges"
	"github.com/2beens/coachai/internal/gymstats/series"
	"github.com/2beens/coachai/internal/gymstats/streak"

	"github.com/google/uuid"
)

// Engine applies activity events to a Profile.
// All methods are pure with respect to their Profile argument: on success a new
// value is returned, on error the input is returned as is.
type Engine struct {
	clock calendar.Clock
	loc   *time.Location
	newID func() string
}

func NewEngine(clock calendar.Clock, loc *time.Location) *Engine {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		clock: clock,
		loc:   loc,
		newID: uuid.NewString,
	}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) today() (time.Time, calendar.Date) {
	now := e.clock.Now()
	return now, calendar.DateOf(now, e.loc)
}

// Identity holds the account fields a profile is created from.
// Zero DateOfBirth and Weight fall back to the defaults.
type Identity struct {
	ID          string        `json:"id" validate:"notblank"`
	Name        string        `json:"name"`
	Avatar      string        `json:"avatar"`
	DateOfBirth calendar.Date `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Weight      float64       `json:"weight" validate:"finite,gte=0"`
}

// New creates a fresh profile with an initial weight entry for today.
func (e *Engine) New(identity Identity) (Profile, error) {
	if err := validateStruct(identity); err != nil {
		return Profile{}, err
	}

	dob := identity.DateOfBirth
	if dob == "" {
		dob = DefaultDateOfBirth
	}
	weight := identity.Weight
	if weight == 0 {
		weight = DefaultWeight
	}

	now, today := e.today()
	p := Profile{
		ID:                identity.ID,
		Name:              identity.Name,
		Avatar:            identity.Avatar,
		DateOfBirth:       dob,
		Weight:            weight,
		Badges:            []badges.ID{},
		DailyCalories:     series.Series{},
		WeightHistory:     series.Series{{Date: today, Value: weight}},
		ScheduledWorkouts: []ScheduledWorkout{},
		ManualActivities:  []ManualActivity{},
	}
	p.Program = ProgramFor(p.Age(now.In(e.loc)), weight)

	return p, nil
}

// Default is the profile used when nothing was persisted yet.
func (e *Engine) Default(id string) Profile {
	p, err := e.New(Identity{ID: id})
	if err != nil {
		// only a blank id can fail here
		p, _ = e.New(Identity{ID: "local"})
	}
	return p
}

// Refresh decays a stale streak without registering an event,
// and brings the program label up to date with the current age.
func (e *Engine) Refresh(p Profile) Profile {
	now, today := e.today()
	next := p.Clone()
	next.Streak = streak.PassiveRecompute(p.LastActivityDate(e.loc), p.Streak, today)
	next.Program = ProgramFor(p.Age(now.In(e.loc)), p.Weight)
	return next
}

// ApplyAnalysisResult folds a validated session result into the profile at the current time.
func (e *Engine) ApplyAnalysisResult(p Profile, r analysis.Result) (Profile, error) {
	if invalid, ok := analysis.ValidateResult(r).(analysis.Invalid); ok {
		return p, invalid.Err()
	}

	now, today := e.today()
	next := e.applyActivity(p, activity{
		at:       now,
		day:      today,
		calories: r.Summary.CaloriesEstimate,
		hours:    r.DurationHours(),
		badgeAgg: badges.Aggregate{
			Feedback:    r.Feedback,
			FromSession: true,
		},
	})

	return next, nil
}

// ApplyManualActivity folds a hand entered activity into the profile, keyed by
// the activity's own date. The stored entry gets an id if it came without one.
func (e *Engine) ApplyManualActivity(p Profile, a ManualActivity) (Profile, error) {
	if err := validateStruct(a); err != nil {
		return p, err
	}

	now, today := e.today()
	if today.Before(a.Date) {
		return p, apperrors.NewValidationError("date", "must not be in the future")
	}
	at := now
	if a.Date != today {
		dayStart, err := a.Date.Time(e.loc)
		if err != nil {
			return p, apperrors.NewValidationError("date", err.Error())
		}
		at = dayStart
	}

	next := e.applyActivity(p, activity{
		at:       at,
		day:      a.Date,
		calories: a.Calories,
		hours:    a.DurationSeconds / 3600,
	})

	if a.ID == "" {
		a.ID = e.newID()
	}
	next.ManualActivities = append(next.ManualActivities, a)

	return next, nil
}

// ApplyWeightUpdate records today's weight, replacing an earlier entry from the same day.
func (e *Engine) ApplyWeightUpdate(p Profile, weight float64) (Profile, error) {
	if err := validWeight(weight); err != nil {
		return p, err
	}

	now, today := e.today()
	next := p.Clone()
	next.WeightHistory = series.MergeByDate(next.WeightHistory, today, weight, series.Replace)
	next.Weight = weight
	next.Program = ProgramFor(next.Age(now.In(e.loc)), weight)

	return next, nil
}

// ApplySchedule appends a planned workout. Past dates are accepted, they just never show as upcoming.
func (e *Engine) ApplySchedule(p Profile, w ScheduledWorkout) (Profile, error) {
	if err := validateStruct(w); err != nil {
		return p, err
	}

	next := p.Clone()
	next.ScheduledWorkouts = append(next.ScheduledWorkouts, w)
	return next, nil
}

// UpcomingWorkouts returns the workouts starting at or after now, soonest first.
func (e *Engine) UpcomingWorkouts(p Profile, now time.Time) []ScheduledWorkout {
	type timed struct {
		at      time.Time
		workout ScheduledWorkout
	}

	var upcoming []timed
	for _, w := range p.ScheduledWorkouts {
		at, err := w.At(e.loc)
		if err != nil {
			continue
		}
		if at.Before(now) {
			continue
		}
		upcoming = append(upcoming, timed{at: at, workout: w})
	}

	slices.SortStableFunc(upcoming, func(a, b timed) int {
		return a.at.Compare(b.at)
	})

	workouts := make([]ScheduledWorkout, 0, len(upcoming))
	for _, u := range upcoming {
		workouts = append(workouts, u.workout)
	}
	return workouts
}

type activity struct {
	at       time.Time
	day      calendar.Date
	calories float64
	hours    float64
	badgeAgg badges.Aggregate
}

// applyActivity holds the effects shared by sessions and manual entries:
// totals, the calorie log, the streak, badges and the last activity time.
func (e *Engine) applyActivity(p Profile, a activity) Profile {
	next := p.Clone()

	next.TotalCalories += a.calories
	next.TotalHours += a.hours
	next.DailyCalories = series.MergeByDate(next.DailyCalories, a.day, a.calories, series.Sum)
	next.Streak = streak.ActiveIncrement(p.LastActivityDate(e.loc), p.Streak, a.day)

	agg := a.badgeAgg
	agg.Streak = next.Streak
	agg.TotalCalories = next.TotalCalories
	next.Badges = badges.Evaluate(next.Badges, agg)

	// a backfilled entry never moves the last activity back in time
	if next.LastActivityAt == nil || a.at.After(*next.LastActivityAt) {
		at := a.at
		next.LastActivityAt = &at
	}

	return next
}
