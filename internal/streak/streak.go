// Package streak derives streak state from a habit's completion dates.
//
// Calculate is pure: it reads nothing but its arguments, so the same set of
// dates and the same reference day always give the same Result.
package streak

import (
	"sort"
	"time"

	"github.com/limbo/streakd/pkg/calendar"
)

// Result is the streak state derived from one habit's full completion history.
type Result struct {
	Current int
	// LongestCandidate is the longest run found in the given dates. The stored
	// longest streak is the maximum of this and whatever was stored before.
	LongestCandidate int
	LastCompletion   *time.Time
	StartDate        *time.Time
}

// Empty reports whether the result was computed from no completions at all.
func (r Result) Empty() bool {
	return r.LastCompletion == nil
}

// Calculate computes the streak for the completion dates as of today.
//
// A current streak may begin today or yesterday; from there each earlier
// completion must fall exactly one day before the previous one. StartDate is
// the earliest day of that run.
func Calculate(dates []time.Time, today time.Time) Result {
	days := sortedDays(dates)
	if len(days) == 0 {
		return Result{}
	}
	today = calendar.Day(today)

	last := days[0]
	res := Result{
		LongestCandidate: longestRun(days),
		LastCompletion:   &last,
	}

	expected := today
	first := true
	for _, d := range days {
		if d.After(expected) {
			// completions dated after today don't count yet
			continue
		}
		if d.Equal(expected) || (first && d.Equal(expected.AddDate(0, 0, -1))) {
			res.Current++
			start := d
			res.StartDate = &start
			expected = d.AddDate(0, 0, -1)
			first = false
			continue
		}
		break
	}
	return res
}

func longestRun(desc []time.Time) int {
	longest, run := 1, 1
	for i := 1; i < len(desc); i++ {
		if desc[i].Equal(desc[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// sortedDays truncates dates to calendar days, sorts them most recent first
// and drops duplicates.
func sortedDays(dates []time.Time) []time.Time {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, calendar.Day(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		if len(out) > 0 && d.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
