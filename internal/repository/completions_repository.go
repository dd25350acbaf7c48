package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/pkg/entity"
)

type CompletionsRepository struct {
	conn PgConnection
}

func NewCompletionsRepoWithConn(conn PgConnection) *CompletionsRepository {
	return &CompletionsRepository{
		conn: conn,
	}
}

func (cr *CompletionsRepository) Create(ctx context.Context, completion *entity.Completion) error {
	row := cr.conn.QueryRow(
		ctx,
		`INSERT INTO habit_completions (user_id, habit_id, completion_date, notes) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at;`,
		completion.UserID,
		completion.HabitID,
		completion.Date,
		completion.Notes,
	)
	err := row.Scan(&completion.ID, &completion.CreatedAt, &completion.UpdatedAt)
	if err != nil {
		switch pgErrCode(err) {
		case uniqueViolation:
			return errorvalues.ErrCompletionExists
		case foreignKeyViolation:
			return errorvalues.ErrHabitNotFound
		}
		return storeErr("creating completion", err)
	}
	return nil
}

func (cr *CompletionsRepository) GetByID(ctx context.Context, id int64, uid uuid.UUID) (*entity.Completion, error) {
	row := cr.conn.QueryRow(
		ctx,
		`SELECT id, user_id, habit_id, completion_date, notes, created_at, updated_at FROM habit_completions WHERE id = $1 AND user_id = $2;`,
		id,
		uid,
	)
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrCompletionNotFound
		}
		return nil, storeErr("getting completion by id", err)
	}
	return c, nil
}

func (cr *CompletionsRepository) UpdateNotes(ctx context.Context, id int64, uid uuid.UUID, notes *string) (*entity.Completion, error) {
	row := cr.conn.QueryRow(
		ctx,
		`UPDATE habit_completions SET notes = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3 RETURNING id, user_id, habit_id, completion_date, notes, created_at, updated_at;`,
		notes,
		id,
		uid,
	)
	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrCompletionNotFound
		}
		return nil, storeErr("updating completion", err)
	}
	return c, nil
}

func (cr *CompletionsRepository) Delete(ctx context.Context, id int64, uid uuid.UUID) (uuid.UUID, error) {
	var habitID uuid.UUID
	row := cr.conn.QueryRow(
		ctx,
		`DELETE FROM habit_completions WHERE id = $1 AND user_id = $2 RETURNING habit_id;`,
		id,
		uid,
	)
	if err := row.Scan(&habitID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errorvalues.ErrCompletionNotFound
		}
		return uuid.Nil, storeErr("deleting completion", err)
	}
	return habitID, nil
}

func (cr *CompletionsRepository) Exists(ctx context.Context, uid, habitID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	row := cr.conn.QueryRow(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM habit_completions WHERE user_id = $1 AND habit_id = $2 AND completion_date = $3);`,
		uid,
		habitID,
		date,
	)
	if err := row.Scan(&exists); err != nil {
		return false, storeErr("inspecting if completion exists", err)
	}
	return exists, nil
}

func (cr *CompletionsRepository) ListByHabit(ctx context.Context, uid, habitID uuid.UUID, r DateRange) ([]*entity.Completion, error) {
	from, to := r.args()
	rows, err := cr.conn.Query(
		ctx,
		`SELECT id, user_id, habit_id, completion_date, notes, created_at, updated_at FROM habit_completions
		WHERE user_id = $1 AND habit_id = $2 AND ($3::date IS NULL OR completion_date >= $3::date) AND ($4::date IS NULL OR completion_date <= $4::date)
		ORDER BY completion_date DESC;`,
		uid,
		habitID,
		from,
		to,
	)
	if err != nil {
		return nil, storeErr("listing habit completions", err)
	}
	return collectCompletions(rows)
}

func (cr *CompletionsRepository) ListByUser(ctx context.Context, uid uuid.UUID, r DateRange) ([]*entity.Completion, error) {
	from, to := r.args()
	rows, err := cr.conn.Query(
		ctx,
		`SELECT id, user_id, habit_id, completion_date, notes, created_at, updated_at FROM habit_completions
		WHERE user_id = $1 AND ($2::date IS NULL OR completion_date >= $2::date) AND ($3::date IS NULL OR completion_date <= $3::date)
		ORDER BY completion_date DESC;`,
		uid,
		from,
		to,
	)
	if err != nil {
		return nil, storeErr("listing user completions", err)
	}
	return collectCompletions(rows)
}

func (cr *CompletionsRepository) CountByUser(ctx context.Context, uid uuid.UUID, r DateRange) (int, error) {
	from, to := r.args()
	row := cr.conn.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM habit_completions WHERE user_id = $1 AND ($2::date IS NULL OR completion_date >= $2::date) AND ($3::date IS NULL OR completion_date <= $3::date);`,
		uid,
		from,
		to,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, storeErr("counting completions", err)
	}
	return count, nil
}

func (cr *CompletionsRepository) ListDatesByHabit(ctx context.Context, uid, habitID uuid.UUID) ([]time.Time, error) {
	rows, err := cr.conn.Query(
		ctx,
		`SELECT completion_date FROM habit_completions WHERE user_id = $1 AND habit_id = $2 ORDER BY completion_date DESC;`,
		uid,
		habitID,
	)
	if err != nil {
		return nil, storeErr("listing completion dates", err)
	}
	defer rows.Close()
	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err = rows.Scan(&d); err != nil {
			return nil, storeErr("completion date parsing", err)
		}
		dates = append(dates, d)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("completion date rows", err)
	}
	return dates, nil
}

func scanCompletion(row pgx.Row) (*entity.Completion, error) {
	var c entity.Completion
	err := row.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCompletions(rows pgx.Rows) ([]*entity.Completion, error) {
	defer rows.Close()
	result := make([]*entity.Completion, 0)
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, storeErr("completion row parsing", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("unexpected completion rows", err)
	}
	return result, nil
}
