// Package calendar works with calendar days represented as time.Time at
// midnight UTC. Every function here returns values in that form.
package calendar

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Day drops the clock part of t, keeping the calendar date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// WeekStart returns the Monday of the ISO week containing day.
func WeekStart(day time.Time) time.Time {
	day = Day(day)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

func MonthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the month containing day.
func MonthEnd(day time.Time) time.Time {
	return MonthStart(day).AddDate(0, 1, -1)
}

// DaysInclusive counts calendar days from..to with both ends included.
// It returns 0 when to is before from.
func DaysInclusive(from, to time.Time) int {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

func Format(day time.Time) string {
	return day.Format(Layout)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
