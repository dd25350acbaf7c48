package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/pkg/entity"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/limbo/streakd/internal/service HabitsServiceI,CompletionsServiceI,AnalyticsServiceI

type CreateHabitRequest struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	// nil means active
	IsActive     *bool
	ReminderTime *string `validate:"omitempty,hhmm"`
}

// UpdateHabitRequest changes only the fields that are set.
type UpdateHabitRequest struct {
	Title        *string `validate:"omitempty,min=1,max=200"`
	Description  *string `validate:"omitempty,max=2000"`
	IsActive     *bool
	ReminderTime *string `validate:"omitempty,hhmm"`
	// ClearReminder removes the reminder time; it wins over ReminderTime
	ClearReminder bool
}

type CreateCompletionRequest struct {
	HabitID uuid.UUID
	Date    time.Time
	Notes   *string `validate:"omitempty,max=1000"`
}

type HabitsServiceI interface {
	CreateHabit(ctx context.Context, uid uuid.UUID, req CreateHabitRequest) (*entity.Habit, error)
	GetUserHabits(ctx context.Context, uid uuid.UUID, activeOnly bool) ([]*entity.Habit, error)
	GetHabit(ctx context.Context, habitID, uid uuid.UUID) (*entity.Habit, error)
	UpdateHabit(ctx context.Context, habitID, uid uuid.UUID, req UpdateHabitRequest) (*entity.Habit, error)
	// Deletes habit with its completions and streak
	DeleteHabit(ctx context.Context, habitID, uid uuid.UUID) error
}

type CompletionsServiceI interface {
	// Marks habit as done on a day. Second completion of the same day fails with ErrCompletionExists
	CreateCompletion(ctx context.Context, uid uuid.UUID, req CreateCompletionRequest) (*entity.Completion, error)
	GetCompletion(ctx context.Context, id int64, uid uuid.UUID) (*entity.Completion, error)
	UpdateNotes(ctx context.Context, id int64, uid uuid.UUID, notes *string) (*entity.Completion, error)
	DeleteCompletion(ctx context.Context, id int64, uid uuid.UUID) error
	// Lists completions of habit between from and to inclusive, most recent first. Nil bound is open
	ListHabitCompletions(ctx context.Context, habitID, uid uuid.UUID, from, to *time.Time) ([]*entity.Completion, error)
}

type AnalyticsServiceI interface {
	GetAnalytics(ctx context.Context, uid uuid.UUID, now time.Time) (*entity.Analytics, error)
	GetStreaks(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error)
	// Returns streak of one habit. A habit without a streak record yet gets zero values
	GetHabitStreak(ctx context.Context, habitID, uid uuid.UUID) (*entity.Streak, error)
}

// CompletionHook is told about every successful completion write.
type CompletionHook interface {
	OnCompletionMutated(ctx context.Context, uid, habitID uuid.UUID)
}

// StreakRecomputer is used by read paths that recompute before serving.
type StreakRecomputer interface {
	Recompute(ctx context.Context, uid, habitID uuid.UUID) error
	RecomputeUser(ctx context.Context, uid uuid.UUID) PassReport
}
