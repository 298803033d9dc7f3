package series

import (
	"sort"

	"github.com/2beens/coachai/internal/calendar"
)

// Point is a single date-keyed value (calories burned on a day, weight measured on a day).
type Point struct {
	Date  calendar.Date `json:"date"`
	Value float64       `json:"value"`
}

// Series is ordered ascending by date, with at most one point per date.
type Series []Point

// Combine merges an incoming value into the value already stored for the same date.
type Combine func(existing, incoming float64) float64

func Sum(existing, incoming float64) float64 {
	return existing + incoming
}

func Replace(_, incoming float64) float64 {
	return incoming
}

// MergeByDate inserts value at date, or combines it with the existing point
// for that date, and returns the result sorted ascending by date.
// The input series is left untouched.
func MergeByDate(s Series, date calendar.Date, value float64, combine Combine) Series {
	merged := make(Series, len(s), len(s)+1)
	copy(merged, s)

	found := false
	for i := range merged {
		if merged[i].Date == date {
			merged[i].Value = combine(merged[i].Value, value)
			found = true
			break
		}
	}
	if !found {
		merged = append(merged, Point{Date: date, Value: value})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged
}

func (s Series) Get(date calendar.Date) (float64, bool) {
	for _, p := range s {
		if p.Date == date {
			return p.Value, true
		}
	}
	return 0, false
}

// Last returns (a copy of) the last n points, or all of them if there are fewer.
func (s Series) Last(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n > len(s) {
		n = len(s)
	}
	last := make(Series, n)
	copy(last, s[len(s)-n:])
	return last
}

func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	c := make(Series, len(s))
	copy(c, s)
	return c
}
