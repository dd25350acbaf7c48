package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/cache"
	"github.com/limbo/streakd/internal/metrics"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/internal/streak"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/entity"
)

// PassReport sums up a recomputation over several habits.
type PassReport struct {
	Habits   int
	Updated  int
	Reset    int
	Skipped  int
	Failed   int
	Duration time.Duration
}

type Clock func() time.Time

type StreakOpts struct {
	// Location decides which calendar day "today" is. UTC when nil
	Location *time.Location
	Clock    Clock
	Logger   *slog.Logger
}

// StreakService keeps streak records in line with the completion log. It
// never runs inside a completion write: writes only invalidate, and records
// are rebuilt here on read or by the scheduler.
type StreakService struct {
	habits      repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	streaks     repository.StreaksRepositoryI
	invalidator *cache.Invalidator
	loc         *time.Location
	clock       Clock
	logger      *slog.Logger
}

func NewStreakService(habits repository.HabitsRepositoryI, completions repository.CompletionsRepositoryI, streaks repository.StreaksRepositoryI, invalidator *cache.Invalidator, opts StreakOpts) *StreakService {
	if habits == nil || completions == nil || streaks == nil {
		log.Fatal("on streak service provided nil repos")
	}
	if invalidator == nil {
		invalidator = cache.NewInvalidator(cache.Disabled())
	}
	s := &StreakService{
		habits:      habits,
		completions: completions,
		streaks:     streaks,
		invalidator: invalidator,
		loc:         opts.Location,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Recompute rebuilds the streak record of one habit from its whole
// completion history.
func (s *StreakService) Recompute(ctx context.Context, uid, habitID uuid.UUID) error {
	result, err := s.recompute(ctx, uid, habitID)
	metrics.StreakRecomputations.WithLabelValues(result).Inc()
	return err
}

func (s *StreakService) recompute(ctx context.Context, uid, habitID uuid.UUID) (string, error) {
	now := s.clock()
	dates, err := s.completions.ListDatesByHabit(ctx, uid, habitID)
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("completions repository error: %w", err)
	}
	res := streak.Calculate(dates, calendar.Today(now, s.loc))
	if res.Empty() {
		existed, err := s.streaks.ResetCurrent(ctx, uid, habitID, now)
		if err != nil {
			return metrics.ResultFailed, fmt.Errorf("streaks repository error: %w", err)
		}
		if !existed {
			return metrics.ResultSkipped, nil
		}
		s.invalidator.StreakUpdated(ctx, uid, habitID)
		return metrics.ResultReset, nil
	}
	record := &entity.Streak{
		UserID:             uid,
		HabitID:            habitID,
		CurrentStreak:      res.Current,
		LongestStreak:      res.LongestCandidate,
		LastCompletionDate: res.LastCompletion,
		StreakStartDate:    res.StartDate,
		LastCalculatedAt:   now,
	}
	longest, err := s.streaks.Upsert(ctx, record)
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("streaks repository error: %w", err)
	}
	// stored longest may exceed the candidate when older history was deleted
	s.logger.DebugContext(ctx, "streak recomputed",
		slog.String("uid", uid.String()),
		slog.String("habit_id", habitID.String()),
		slog.Int("current_streak", res.Current),
		slog.Int("longest_streak", longest),
	)
	s.invalidator.StreakUpdated(ctx, uid, habitID)
	return metrics.ResultUpdated, nil
}

// RecomputeUser recomputes every active habit of uid.
func (s *StreakService) RecomputeUser(ctx context.Context, uid uuid.UUID) PassReport {
	habits, err := s.habits.GetByUserID(ctx, uid, true)
	if err != nil {
		s.logger.Error("listing habits for recomputation", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return PassReport{Failed: 1}
	}
	return s.recomputeHabits(ctx, habits)
}

// RecomputeAll is the scheduled pass over every active habit. Only a failure
// to list habits is returned; per-habit failures are logged and counted.
func (s *StreakService) RecomputeAll(ctx context.Context) (PassReport, error) {
	start := time.Now()
	habits, err := s.habits.ListActive(ctx)
	if err != nil {
		return PassReport{}, fmt.Errorf("habits repository error: %w", err)
	}
	report := s.recomputeHabits(ctx, habits)
	report.Duration = time.Since(start)
	metrics.StreakPassDuration.Observe(report.Duration.Seconds())
	s.logger.Info("streak pass finished",
		slog.Int("habits", report.Habits),
		slog.Int("updated", report.Updated),
		slog.Int("reset", report.Reset),
		slog.Int("failed", report.Failed),
		slog.Duration("took", report.Duration),
	)
	return report, nil
}

func (s *StreakService) recomputeHabits(ctx context.Context, habits []*entity.Habit) PassReport {
	var report PassReport
	for _, h := range habits {
		if ctx.Err() != nil {
			s.logger.Warn("recomputation interrupted", slog.Int("left", len(habits)-report.Habits))
			break
		}
		report.Habits++
		result, err := s.recompute(ctx, h.UserID, h.ID)
		metrics.StreakRecomputations.WithLabelValues(result).Inc()
		switch result {
		case metrics.ResultUpdated:
			report.Updated++
		case metrics.ResultReset:
			report.Reset++
		case metrics.ResultSkipped:
			report.Skipped++
		default:
			report.Failed++
			s.logger.Error("streak recomputation failed",
				slog.String("uid", h.UserID.String()),
				slog.String("habit_id", h.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return report
}

// OnCompletionMutated drops everything cached from the habit's completions.
// The streak itself is rebuilt later, on read or by the next pass.
func (s *StreakService) OnCompletionMutated(ctx context.Context, uid, habitID uuid.UUID) {
	s.invalidator.CompletionMutated(ctx, uid, habitID)
}
