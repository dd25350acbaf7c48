package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/pkg/calendar"
)

const (
	StreakTTL      = 15 * time.Minute
	StreakListTTL  = 10 * time.Minute
	AnalyticsTTL   = 15 * time.Minute
	CompletionsTTL = 15 * time.Minute
	HabitTTL       = time.Hour
	HabitListTTL   = 30 * time.Minute
)

// openBound marks a missing end of a date range in completion list keys.
const openBound = "none"

func StreakKey(uid, habitID uuid.UUID) string {
	return fmt.Sprintf("streak:user:%s:habit:%s", uid, habitID)
}

func StreakListKey(uid uuid.UUID) string {
	return fmt.Sprintf("streaks:user:%s", uid)
}

func AnalyticsKey(uid uuid.UUID) string {
	return fmt.Sprintf("analytics:user:%s", uid)
}

func CompletionsKey(uid, habitID uuid.UUID, from, to *time.Time) string {
	return CompletionsPrefix(uid, habitID) + bound(from) + ":" + bound(to)
}

// CompletionsPrefix covers every cached date range of one habit's completions.
func CompletionsPrefix(uid, habitID uuid.UUID) string {
	return fmt.Sprintf("completions:user:%s:habit:%s:", uid, habitID)
}

func HabitKey(habitID uuid.UUID) string {
	return fmt.Sprintf("habit:%s", habitID)
}

func HabitListKey(uid uuid.UUID, activeOnly bool) string {
	return fmt.Sprintf("%sactive:%t", HabitListPrefix(uid), activeOnly)
}

func HabitListPrefix(uid uuid.UUID) string {
	return fmt.Sprintf("habits:user:%s:", uid)
}

func bound(t *time.Time) string {
	if t == nil {
		return openBound
	}
	return calendar.Format(*t)
}
