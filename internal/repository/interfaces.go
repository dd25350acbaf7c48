package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/streakd/pkg/entity"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/limbo/streakd/internal/repository HabitsRepositoryI,CompletionsRepositoryI,StreaksRepositoryI

type HabitsRepositoryI interface {
	// Creates new habit. Only UserID, Title, Description, IsActive and ReminderTime are used
	Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error)
	// Searches habit with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error)
	// Lists habits owned by user, newest first
	GetByUserID(ctx context.Context, uid uuid.UUID, activeOnly bool) ([]*entity.Habit, error)
	// Lists active habits of every user. Used by the recomputation pass
	ListActive(ctx context.Context) ([]*entity.Habit, error)
	// Lists active habits with a reminder time whose owners have reminders enabled,
	// with the owner's time zone
	ListWithReminders(ctx context.Context) ([]*entity.HabitReminder, error)
	// Updates habit by ID (ID in habit is necessary)
	Update(ctx context.Context, habit *entity.Habit) error
	// Deletes habit with its completions and streak in one transaction
	Delete(ctx context.Context, id uuid.UUID) error
}

type CompletionsRepositoryI interface {
	// Inserts completion, filling ID and timestamps. Duplicate day gives ErrCompletionExists
	Create(ctx context.Context, completion *entity.Completion) error
	// Searches completion by id among completions of uid
	GetByID(ctx context.Context, id int64, uid uuid.UUID) (*entity.Completion, error)
	// Replaces notes of completion and returns updated row
	UpdateNotes(ctx context.Context, id int64, uid uuid.UUID, notes *string) (*entity.Completion, error)
	// Deletes completion, returns id of habit it belonged to
	Delete(ctx context.Context, id int64, uid uuid.UUID) (uuid.UUID, error)
	// Inspects if habit has completion on date
	Exists(ctx context.Context, uid, habitID uuid.UUID, date time.Time) (bool, error)
	// Lists completions of habit in range, most recent first
	ListByHabit(ctx context.Context, uid, habitID uuid.UUID, r DateRange) ([]*entity.Completion, error)
	// Lists completions of every habit of user in range, most recent first
	ListByUser(ctx context.Context, uid uuid.UUID, r DateRange) ([]*entity.Completion, error)
	// Counts completions of user in range
	CountByUser(ctx context.Context, uid uuid.UUID, r DateRange) (int, error)
	// Returns every completion date of habit, most recent first
	ListDatesByHabit(ctx context.Context, uid, habitID uuid.UUID) ([]time.Time, error)
}

type StreaksRepositoryI interface {
	// Returns streak record or nil if habit wasn't calculated yet
	Get(ctx context.Context, uid, habitID uuid.UUID) (*entity.Streak, error)
	// Inserts or overwrites streak record keeping the greatest longest streak. Returns stored longest streak
	Upsert(ctx context.Context, streak *entity.Streak) (int, error)
	// Zeroes current streak of existing record. Reports whether record exists
	ResetCurrent(ctx context.Context, uid, habitID uuid.UUID, calculatedAt time.Time) (bool, error)
	// Lists streak records of user with habit titles
	ListByUser(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error)
}

// DateRange bounds a completion query by calendar days, both ends inclusive.
// A nil end is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) args() (any, any) {
	var from, to any
	if r.From != nil {
		from = *r.From
	}
	if r.To != nil {
		to = *r.To
	}
	return from, to
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
