package badges

import (
	"slices"

	"github.com/2beens/coachai/internal/gymstats/analysis"
)

type ID string

const (
	StreakFive   ID = "streak-5"
	FiveKClub    ID = "5k-club"
	PrecisionPro ID = "precision-pro"
)

// Aggregate is what the rules look at after a mutation was applied.
// Feedback is only meaningful when FromSession is set.
type Aggregate struct {
	Streak        int
	TotalCalories float64
	Feedback      []analysis.FormFeedback
	FromSession   bool
}

type Rule struct {
	ID    ID
	Title string
	Award func(agg Aggregate) bool
}

// Rules are evaluated in order; earned badges are appended in this order too.
var Rules = []Rule{
	{
		ID:    StreakFive,
		Title: "🔥 5-Day Streak",
		Award: func(agg Aggregate) bool {
			return agg.Streak >= 5
		},
	},
	{
		ID:    FiveKClub,
		Title: "⚡ 5k Club",
		Award: func(agg Aggregate) bool {
			return agg.TotalCalories > 5000
		},
	},
	{
		ID:    PrecisionPro,
		Title: "🎯 Precision Pro",
		Award: func(agg Aggregate) bool {
			if !agg.FromSession || len(agg.Feedback) == 0 {
				return false
			}
			for _, f := range agg.Feedback {
				if f.Severity == analysis.SeveritySevere {
					return false
				}
			}
			return true
		},
	},
}

// Evaluate returns current extended with every newly earned badge.
// Existing badges are never removed and never duplicated, so evaluating
// the same aggregate twice yields the same set.
func Evaluate(current []ID, agg Aggregate) []ID {
	earned := make([]ID, 0, len(current)+len(Rules))
	for _, id := range current {
		if !slices.Contains(earned, id) {
			earned = append(earned, id)
		}
	}

	for _, rule := range Rules {
		if slices.Contains(earned, rule.ID) {
			continue
		}
		if rule.Award(agg) {
			earned = append(earned, rule.ID)
		}
	}

	return earned
}

// Title returns the display title of a badge, or the raw id for unknown ones.
func Title(id ID) string {
	for _, rule := range Rules {
		if rule.ID == id {
			return rule.Title
		}
	}
	return string(id)
}
