package entity

import (
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"uid"`
	Title        string    `json:"title"`
	Description  string    `json:"desc"`
	IsActive     bool      `json:"is_active"`
	ReminderTime *string   `json:"reminder_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HabitReminder is a habit with a reminder time and its owner's time zone.
// Timezone is empty when the owner has no stored preferences.
type HabitReminder struct {
	Habit
	Timezone string
}

// Completion marks a habit as done on one calendar day.
type Completion struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"uid"`
	HabitID   uuid.UUID `json:"habit_id"`
	Date      time.Time `json:"completion_date"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Streak is the derived streak record of one habit. LongestStreak never
// decreases once stored.
type Streak struct {
	UserID             uuid.UUID  `json:"uid"`
	HabitID            uuid.UUID  `json:"habit_id"`
	HabitTitle         string     `json:"habit_title,omitempty"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
	StreakStartDate    *time.Time `json:"streak_start_date,omitempty"`
	LastCalculatedAt   time.Time  `json:"last_calculated_at"`
}

type HabitStats struct {
	HabitID              uuid.UUID  `json:"habit_id"`
	HabitTitle           string     `json:"habit_title"`
	CompletionsThisMonth int        `json:"total_completions"`
	CurrentStreak        int        `json:"current_streak"`
	LongestStreak        int        `json:"longest_streak"`
	CompletionRate       float64    `json:"completion_rate"`
	LastCompletionDate   *time.Time `json:"last_completion_date,omitempty"`
}

// Analytics is the per-user rollup. Histogram keys are YYYY-MM-DD.
type Analytics struct {
	TotalHabits           int            `json:"total_habits"`
	ActiveHabits          int            `json:"active_habits"`
	TotalCompletions      int            `json:"total_completions"`
	CompletionsThisWeek   int            `json:"completions_this_week"`
	CompletionsThisMonth  int            `json:"completions_this_month"`
	OverallCompletionRate float64        `json:"overall_completion_rate"`
	Streaks               []*Streak      `json:"streaks"`
	HabitStats            []*HabitStats  `json:"habit_stats"`
	WeeklyCompletions     map[string]int `json:"weekly_completions"`
	MonthlyCompletions    map[string]int `json:"monthly_completions"`
}
