package badges

import (
	"testing"

	"github.com/2beens/coachai/internal/gymstats/analysis"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	clean := []analysis.FormFeedback{
		{Issue: "hips rise early", Severity: analysis.SeverityMinor},
		{Issue: "bar path drifts", Severity: analysis.SeverityModerate},
	}
	withSevere := append([]analysis.FormFeedback{{Issue: "rounded back", Severity: analysis.SeveritySevere}}, clean...)

	testCases := []struct {
		name    string
		current []ID
		agg     Aggregate
		want    []ID
	}{
		{
			name: "nothing earned",
			agg:  Aggregate{Streak: 1, TotalCalories: 400},
			want: []ID{},
		},
		{
			name: "streak of five",
			agg:  Aggregate{Streak: 5},
			want: []ID{StreakFive},
		},
		{
			name: "exactly 5000 calories is not enough",
			agg:  Aggregate{TotalCalories: 5000},
			want: []ID{},
		},
		{
			name: "over 5000 calories",
			agg:  Aggregate{TotalCalories: 5000.5},
			want: []ID{FiveKClub},
		},
		{
			name: "clean feedback from a session",
			agg:  Aggregate{Feedback: clean, FromSession: true},
			want: []ID{PrecisionPro},
		},
		{
			name: "severe feedback blocks precision",
			agg:  Aggregate{Feedback: withSevere, FromSession: true},
			want: []ID{},
		},
		{
			name: "no feedback, no precision",
			agg:  Aggregate{FromSession: true},
			want: []ID{},
		},
		{
			name: "feedback outside a session is ignored",
			agg:  Aggregate{Feedback: clean},
			want: []ID{},
		},
		{
			name:    "earned badges are kept when rules no longer hold",
			current: []ID{FiveKClub, StreakFive},
			agg:     Aggregate{Streak: 0, TotalCalories: 10},
			want:    []ID{FiveKClub, StreakFive},
		},
		{
			name:    "new badges are appended after existing ones",
			current: []ID{PrecisionPro},
			agg:     Aggregate{Streak: 6, TotalCalories: 6000},
			want:    []ID{PrecisionPro, StreakFive, FiveKClub},
		},
		{
			name:    "duplicates in the input collapse",
			current: []ID{StreakFive, StreakFive},
			agg:     Aggregate{Streak: 9},
			want:    []ID{StreakFive},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.current, tc.agg))
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	agg := Aggregate{
		Streak:        7,
		TotalCalories: 7200,
		Feedback:      []analysis.FormFeedback{{Severity: analysis.SeverityMinor}},
		FromSession:   true,
	}

	once := Evaluate(nil, agg)
	twice := Evaluate(once, agg)
	assert.Equal(t, once, twice)
	assert.Len(t, twice, 3)
}

func TestEvaluate_DoesNotAliasInput(t *testing.T) {
	current := make([]ID, 1, 8)
	current[0] = PrecisionPro

	out := Evaluate(current, Aggregate{Streak: 5})
	out[0] = "changed"
	assert.Equal(t, PrecisionPro, current[0])
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "🔥 5-Day Streak", Title(StreakFive))
	assert.Equal(t, "⚡ 5k Club", Title(FiveKClub))
	assert.Equal(t, "🎯 Precision Pro", Title(PrecisionPro))
	assert.Equal(t, "mystery", Title("mystery"))
}
