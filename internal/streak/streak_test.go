package streak_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/limbo/streakd/internal/streak"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func days(ss ...string) []time.Time {
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		out = append(out, day(s))
	}
	return out
}

func dayRange(from, to string) []time.Time {
	var out []time.Time
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func TestCalculate(t *testing.T) {
	testCases := []struct {
		Desc        string
		Dates       []time.Time
		Today       string
		Current     int
		Longest     int
		StartDate   string
		LastDate    string
		EmptyResult bool
	}{
		{
			Desc:        "no completions",
			Dates:       nil,
			Today:       "2024-01-05",
			EmptyResult: true,
		},
		{
			Desc:      "gap before today breaks the run",
			Dates:     days("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"),
			Today:     "2024-01-05",
			Current:   1,
			Longest:   3,
			StartDate: "2024-01-05",
			LastDate:  "2024-01-05",
		},
		{
			Desc:      "every day through today",
			Dates:     dayRange("2024-01-01", "2024-01-10"),
			Today:     "2024-01-10",
			Current:   10,
			Longest:   10,
			StartDate: "2024-01-01",
			LastDate:  "2024-01-10",
		},
		{
			Desc:      "last completion yesterday keeps the streak",
			Dates:     dayRange("2024-01-06", "2024-01-09"),
			Today:     "2024-01-10",
			Current:   4,
			Longest:   4,
			StartDate: "2024-01-06",
			LastDate:  "2024-01-09",
		},
		{
			Desc:     "last completion two days ago",
			Dates:    dayRange("2024-01-01", "2024-01-08"),
			Today:    "2024-01-10",
			Current:  0,
			Longest:  8,
			LastDate: "2024-01-08",
		},
		{
			Desc:      "tolerance applies only from today",
			Dates:     days("2024-01-06", "2024-01-07", "2024-01-09"),
			Today:     "2024-01-10",
			Current:   1,
			Longest:   2,
			StartDate: "2024-01-09",
			LastDate:  "2024-01-09",
		},
		{
			Desc:      "unordered input with duplicates",
			Dates:     days("2024-01-09", "2024-01-10", "2024-01-09", "2024-01-08"),
			Today:     "2024-01-10",
			Current:   3,
			Longest:   3,
			StartDate: "2024-01-08",
			LastDate:  "2024-01-10",
		},
		{
			Desc:      "future dated completion is skipped for current streak",
			Dates:     days("2024-01-12", "2024-01-10", "2024-01-09"),
			Today:     "2024-01-10",
			Current:   2,
			Longest:   2,
			StartDate: "2024-01-09",
			LastDate:  "2024-01-12",
		},
		{
			Desc:      "clock part of dates is ignored",
			Dates:     []time.Time{time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), time.Date(2024, 1, 9, 1, 0, 0, 0, time.UTC)},
			Today:     "2024-01-10",
			Current:   2,
			Longest:   2,
			StartDate: "2024-01-09",
			LastDate:  "2024-01-10",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			res := streak.Calculate(tc.Dates, day(tc.Today))
			if tc.EmptyResult {
				assert.True(t, res.Empty())
				assert.Zero(t, res.Current)
				assert.Nil(t, res.StartDate)
				return
			}
			assert.Equal(t, tc.Current, res.Current)
			assert.Equal(t, tc.Longest, res.LongestCandidate)
			require.NotNil(t, res.LastCompletion)
			assert.Equal(t, day(tc.LastDate), *res.LastCompletion)
			if tc.StartDate == "" {
				assert.Nil(t, res.StartDate)
			} else {
				require.NotNil(t, res.StartDate)
				assert.Equal(t, day(tc.StartDate), *res.StartDate)
			}
		})
	}
}

func TestCalculateCurrentNeverExceedsLongest(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	today := day("2024-03-31")
	for i := 0; i < 500; i++ {
		var dates []time.Time
		for d := day("2024-01-01"); !d.After(today); d = d.AddDate(0, 0, 1) {
			if rnd.Intn(3) > 0 {
				dates = append(dates, d)
			}
		}
		res := streak.Calculate(dates, today)
		assert.LessOrEqual(t, res.Current, res.LongestCandidate)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	dates := days("2024-01-03", "2024-01-01", "2024-01-02", "2024-01-09", "2024-01-10")
	today := day("2024-01-10")
	first := streak.Calculate(dates, today)
	second := streak.Calculate(dates, today)
	assert.Equal(t, first, second)
}
