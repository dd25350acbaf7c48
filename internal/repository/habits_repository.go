package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/pkg/entity"
)

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepoWithConn(conn PgConnection) *HabitsRepository {
	return &HabitsRepository{
		conn: conn,
	}
}

const habitColumns = `id, user_id, title, description, is_active, reminder_time, created_at, updated_at`

func (hr *HabitsRepository) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	var id uuid.UUID
	row := hr.conn.QueryRow(ctx, `INSERT INTO habits (user_id, title, description, is_active, reminder_time) VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		habit.UserID,
		habit.Title,
		habit.Description,
		habit.IsActive,
		habit.ReminderTime,
	)
	if err := row.Scan(&id); err != nil {
		if pgErrCode(err) == uniqueViolation {
			return uuid.Nil, errorvalues.ErrUserHasHabit
		}
		return uuid.Nil, storeErr("creating habit", err)
	}
	return id, nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	row := hr.conn.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1;`, id)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, storeErr("getting habit by id", err)
	}
	return habit, nil
}

func (hr *HabitsRepository) GetByUserID(ctx context.Context, uid uuid.UUID, activeOnly bool) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 AND (is_active OR NOT $2) ORDER BY created_at DESC;`, uid, activeOnly)
	if err != nil {
		return nil, storeErr("getting habits by uid", err)
	}
	return collectHabits(rows)
}

func (hr *HabitsRepository) ListActive(ctx context.Context) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE is_active ORDER BY user_id, created_at;`)
	if err != nil {
		return nil, storeErr("listing active habits", err)
	}
	return collectHabits(rows)
}

// ListWithReminders treats owners without a preferences row as having
// reminders enabled.
func (hr *HabitsRepository) ListWithReminders(ctx context.Context) ([]*entity.HabitReminder, error) {
	rows, err := hr.conn.Query(ctx, `SELECT h.id, h.user_id, h.title, h.description, h.is_active, h.reminder_time, h.created_at, h.updated_at, COALESCE(p.timezone, '')
		FROM habits h LEFT JOIN user_preferences p ON p.user_id = h.user_id
		WHERE h.is_active AND h.reminder_time IS NOT NULL AND COALESCE(p.reminder_enabled, TRUE);`)
	if err != nil {
		return nil, storeErr("listing habits with reminders", err)
	}
	defer rows.Close()
	reminders := make([]*entity.HabitReminder, 0)
	for rows.Next() {
		var r entity.HabitReminder
		err = rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.IsActive, &r.ReminderTime, &r.CreatedAt, &r.UpdatedAt, &r.Timezone)
		if err != nil {
			return nil, storeErr("unmarshalling habit reminder", err)
		}
		reminders = append(reminders, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("unexpected error after scanning", err)
	}
	return reminders, nil
}

func (hr *HabitsRepository) Update(ctx context.Context, habit *entity.Habit) error {
	ct, err := hr.conn.Exec(ctx, `UPDATE habits SET title = $1, description = $2, is_active = $3, reminder_time = $4, updated_at = NOW() WHERE id = $5;`,
		habit.Title, habit.Description, habit.IsActive, habit.ReminderTime, habit.ID,
	)
	if err != nil {
		if pgErrCode(err) == uniqueViolation {
			return errorvalues.ErrUserHasHabit
		}
		return storeErr("updating habit", err)
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

// Delete removes the habit together with its completions and streak record.
func (hr *HabitsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := hr.conn.Begin(ctx)
	if err != nil {
		return storeErr("beginning habit deletion", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM habit_completions WHERE habit_id = $1;`, id); err != nil {
		_ = tx.Rollback(ctx)
		return storeErr("deleting habit completions", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM streaks WHERE habit_id = $1;`, id); err != nil {
		_ = tx.Rollback(ctx)
		return storeErr("deleting habit streak", err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1;`, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return storeErr("deleting habit", err)
	}
	if ct.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return errorvalues.ErrHabitNotFound
	}
	if err = tx.Commit(ctx); err != nil {
		return storeErr("committing habit deletion", err)
	}
	return nil
}

func scanHabit(row pgx.Row) (*entity.Habit, error) {
	var h entity.Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.IsActive, &h.ReminderTime, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHabits(rows pgx.Rows) ([]*entity.Habit, error) {
	defer rows.Close()
	habits := make([]*entity.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, storeErr("unmarshalling habit", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("unexpected error after scanning", err)
	}
	return habits, nil
}
