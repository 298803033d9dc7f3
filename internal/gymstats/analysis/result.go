package analysis

// Result is the structured answer of the video analysis service.
// Field names are fixed by the inference contract.
type Result struct {
	Summary    SessionSummary        `json:"session_summary"`
	Detections []ExerciseDetection   `json:"exercise_detection"`
	Feedback   []FormFeedback        `json:"form_feedback"`
	Drills     []DrillRecommendation `json:"drill_recommendations"`
	Plan       PersonalizedPlan      `json:"personalized_plan"`
}

type SessionSummary struct {
	Sport            string  `json:"sport"`
	ExerciseType     string  `json:"exercise_type"`
	DurationSeconds  float64 `json:"estimated_duration_sec"`
	IntensityLevel   string  `json:"intensity_level"`
	CaloriesEstimate float64 `json:"calories_estimate"`
	// Score is the overall session score out of 100, when the service provides one.
	Score *float64 `json:"score,omitempty"`
}

// TimeRange is a [start, end] offset into the video, in seconds.
type TimeRange [2]float64

type ExerciseDetection struct {
	Label      string    `json:"label"`
	TimeRange  TimeRange `json:"timestamp_range_sec"`
	Confidence float64   `json:"confidence"`
	Score      *float64  `json:"score,omitempty"`
}

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

type FormFeedback struct {
	TimeRange  TimeRange `json:"timestamp_range_sec"`
	Issue      string    `json:"issue"`
	Cue        string    `json:"cue"`
	Severity   Severity  `json:"severity"`
	VisualHint string    `json:"visual_overlay_hint"`
	BodyFocus  string    `json:"body_focus"`
}

type DrillRecommendation struct {
	Name        string  `json:"name"`
	Purpose     string  `json:"purpose"`
	Sets        float64 `json:"sets"`
	Reps        float64 `json:"reps"`
	RestSeconds float64 `json:"rest_sec"`
}

type PersonalizedPlan struct {
	WeeklyFocus      string   `json:"weekly_focus"`
	SessionsPerWeek  float64  `json:"sessions_per_week"`
	ProgressionRules string   `json:"progression_rules"`
	Milestones       []string `json:"milestones"`
}

// HasSevereFeedback reports whether any feedback item is marked severe.
func (r Result) HasSevereFeedback() bool {
	for _, f := range r.Feedback {
		if f.Severity == SeveritySevere {
			return true
		}
	}
	return false
}

// DurationHours converts the estimated session duration to hours.
func (r Result) DurationHours() float64 {
	return r.Summary.DurationSeconds / 3600
}

// normalized returns a copy with nil lists replaced by empty ones,
// so that a typed result serializes to a payload the schema accepts.
func (r Result) normalized() Result {
	if r.Detections == nil {
		r.Detections = []ExerciseDetection{}
	}
	if r.Feedback == nil {
		r.Feedback = []FormFeedback{}
	}
	if r.Drills == nil {
		r.Drills = []DrillRecommendation{}
	}
	if r.Plan.Milestones == nil {
		r.Plan.Milestones = []string{}
	}
	return r
}
