package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/2beens/coachai/internal/gymstats/badges"
	"github.com/2beens/coachai/internal/gymstats/profile"
	"github.com/2beens/coachai/internal/gymstats/sessions"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

const timestampLayout = "2006-01-02 15:04"

// Sanitize keeps printable ASCII only and trims surrounding spaces.
func Sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x20 && c <= 0x7E {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Render writes the plain text progress report of p and its session history.
func Render(w io.Writer, p profile.Profile, history []sessions.Session, now time.Time) error {
	var sb strings.Builder

	sb.WriteString("COACHAI PROGRESS REPORT\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format(timestampLayout))

	writeSummary(&sb, p, now)
	sb.WriteString("\n")

	sb.WriteString("WEIGHT HISTORY\n")
	sb.WriteString(weightTable(p))
	sb.WriteString("\n\n")

	sb.WriteString("SESSIONS\n")
	sb.WriteString(sessionsTable(history, now.Location()))
	sb.WriteString("\n\n")

	sb.WriteString("MANUAL ACTIVITIES\n")
	sb.WriteString(manualTable(p))
	sb.WriteString("\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeSummary(sb *strings.Builder, p profile.Profile, now time.Time) {
	name := Sanitize(p.Name)
	if name == "" {
		name = Sanitize(p.ID)
	}
	fmt.Fprintf(sb, "Name:           %s\n", name)
	fmt.Fprintf(sb, "Age:            %d\n", p.Age(now))
	fmt.Fprintf(sb, "Weight:         %s kg\n", humanize.FtoaWithDigits(p.Weight, 1))
	fmt.Fprintf(sb, "Program:        %s\n", Sanitize(p.Program))
	fmt.Fprintf(sb, "Streak:         %d days\n", p.Streak)
	fmt.Fprintf(sb, "Total calories: %s kcal\n", humanize.Comma(int64(math.Round(p.TotalCalories))))
	fmt.Fprintf(sb, "Total hours:    %s h\n", humanize.FtoaWithDigits(p.TotalHours, 2))

	lastActivity := "never"
	if p.LastActivityAt != nil {
		lastActivity = humanize.RelTime(*p.LastActivityAt, now, "ago", "from now")
	}
	fmt.Fprintf(sb, "Last activity:  %s\n", lastActivity)

	titles := make([]string, 0, len(p.Badges))
	for _, id := range p.Badges {
		if title := Sanitize(badges.Title(id)); title != "" {
			titles = append(titles, title)
		}
	}
	badgeLine := "none yet"
	if len(titles) > 0 {
		badgeLine = strings.Join(titles, ", ")
	}
	fmt.Fprintf(sb, "Badges:         %s\n", badgeLine)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleDefault)
	return tbl
}

func weightTable(p profile.Profile) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Date", "Weight (kg)"})
	for _, point := range p.WeightHistory {
		tbl.AppendRow(table.Row{Sanitize(point.Date.String()), humanize.FtoaWithDigits(point.Value, 1)})
	}
	return tbl.Render()
}

func sessionsTable(history []sessions.Session, loc *time.Location) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Date", "Sport", "Exercise", "Duration", "Calories", "Score"})
	for _, s := range history {
		summary := s.Result.Summary
		score := "-"
		if summary.Score != nil {
			score = humanize.FtoaWithDigits(*summary.Score, 1)
		}
		tbl.AppendRow(table.Row{
			s.CreatedAt.In(loc).Format(timestampLayout),
			Sanitize(summary.Sport),
			Sanitize(summary.ExerciseType),
			formatDuration(summary.DurationSeconds),
			humanize.Comma(int64(math.Round(summary.CaloriesEstimate))),
			score,
		})
	}
	tbl.AppendFooter(table.Row{"", "", "", "", "Total", len(history)})
	return tbl.Render()
}

func manualTable(p profile.Profile) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Date", "Exercise", "Duration", "Calories", "Intensity"})
	for _, a := range p.ManualActivities {
		intensity := Sanitize(string(a.Intensity))
		if intensity == "" {
			intensity = "-"
		}
		tbl.AppendRow(table.Row{
			Sanitize(a.Date.String()),
			Sanitize(a.Exercise),
			formatDuration(a.DurationSeconds),
			humanize.Comma(int64(math.Round(a.Calories))),
			intensity,
		})
	}
	return tbl.Render()
}

func formatDuration(seconds float64) string {
	d := time.Duration(math.Round(seconds)) * time.Second
	return d.String()
}
