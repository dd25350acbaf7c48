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

type StreaksRepository struct {
	conn PgConnection
}

func NewStreaksRepoWithConn(conn PgConnection) *StreaksRepository {
	return &StreaksRepository{
		conn: conn,
	}
}

func (sr *StreaksRepository) Get(ctx context.Context, uid, habitID uuid.UUID) (*entity.Streak, error) {
	var s entity.Streak
	row := sr.conn.QueryRow(
		ctx,
		`SELECT user_id, habit_id, current_streak, longest_streak, last_completion_date, streak_start_date, last_calculated_at FROM streaks WHERE user_id = $1 AND habit_id = $2;`,
		uid,
		habitID,
	)
	err := row.Scan(&s.UserID, &s.HabitID, &s.CurrentStreak, &s.LongestStreak, &s.LastCompletionDate, &s.StreakStartDate, &s.LastCalculatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("getting streak", err)
	}
	return &s, nil
}

// Upsert never lowers longest_streak: the comparison happens inside the
// statement, so concurrent recomputations can't race it down.
func (sr *StreaksRepository) Upsert(ctx context.Context, streak *entity.Streak) (int, error) {
	row := sr.conn.QueryRow(
		ctx,
		`INSERT INTO streaks (user_id, habit_id, current_streak, longest_streak, last_completion_date, streak_start_date, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, habit_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = GREATEST(streaks.longest_streak, EXCLUDED.longest_streak),
			last_completion_date = EXCLUDED.last_completion_date,
			streak_start_date = EXCLUDED.streak_start_date,
			last_calculated_at = EXCLUDED.last_calculated_at,
			updated_at = NOW()
		RETURNING longest_streak;`,
		streak.UserID,
		streak.HabitID,
		streak.CurrentStreak,
		streak.LongestStreak,
		streak.LastCompletionDate,
		streak.StreakStartDate,
		streak.LastCalculatedAt,
	)
	var longest int
	if err := row.Scan(&longest); err != nil {
		if pgErrCode(err) == foreignKeyViolation {
			return 0, errorvalues.ErrHabitNotFound
		}
		return 0, storeErr("upserting streak", err)
	}
	return longest, nil
}

func (sr *StreaksRepository) ResetCurrent(ctx context.Context, uid, habitID uuid.UUID, calculatedAt time.Time) (bool, error) {
	ct, err := sr.conn.Exec(
		ctx,
		`UPDATE streaks SET current_streak = 0, last_completion_date = NULL, streak_start_date = NULL, last_calculated_at = $1, updated_at = NOW() WHERE user_id = $2 AND habit_id = $3;`,
		calculatedAt,
		uid,
		habitID,
	)
	if err != nil {
		return false, storeErr("resetting streak", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (sr *StreaksRepository) ListByUser(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error) {
	rows, err := sr.conn.Query(
		ctx,
		`SELECT s.user_id, s.habit_id, h.title, s.current_streak, s.longest_streak, s.last_completion_date, s.streak_start_date, s.last_calculated_at
		FROM streaks s JOIN habits h ON h.id = s.habit_id
		WHERE s.user_id = $1 ORDER BY h.created_at DESC;`,
		uid,
	)
	if err != nil {
		return nil, storeErr("listing streaks", err)
	}
	defer rows.Close()
	result := make([]*entity.Streak, 0)
	for rows.Next() {
		s := entity.Streak{}
		err = rows.Scan(&s.UserID, &s.HabitID, &s.HabitTitle, &s.CurrentStreak, &s.LongestStreak, &s.LastCompletionDate, &s.StreakStartDate, &s.LastCalculatedAt)
		if err != nil {
			return nil, storeErr("streak row parsing", err)
		}
		result = append(result, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("unexpected streak rows", err)
	}
	return result, nil
}
