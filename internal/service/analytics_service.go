package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/entity"
)

type AnalyticsOpts struct {
	Location *time.Location
	// Recomputer, when set, rebuilds streaks of the user before each read
	Recomputer StreakRecomputer
	Logger     *slog.Logger
}

// AnalyticsService computes rollups straight from the primary store. It is
// correct on its own; CachedAnalytics puts the cache in front of it.
type AnalyticsService struct {
	habitsRepo      repository.HabitsRepositoryI
	completionsRepo repository.CompletionsRepositoryI
	streaksRepo     repository.StreaksRepositoryI
	recomputer      StreakRecomputer
	loc             *time.Location
	logger          *slog.Logger
}

func NewAnalyticsService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI, streaksRepo repository.StreaksRepositoryI, opts AnalyticsOpts) *AnalyticsService {
	if habitsRepo == nil || completionsRepo == nil || streaksRepo == nil {
		log.Fatal("on analytics service provided nil repos")
	}
	as := &AnalyticsService{
		habitsRepo:      habitsRepo,
		completionsRepo: completionsRepo,
		streaksRepo:     streaksRepo,
		recomputer:      opts.Recomputer,
		loc:             opts.Location,
		logger:          opts.Logger,
	}
	if as.loc == nil {
		as.loc = time.UTC
	}
	if as.logger == nil {
		as.logger = slog.Default()
	}
	return as
}

func (as *AnalyticsService) GetAnalytics(ctx context.Context, uid uuid.UUID, now time.Time) (*entity.Analytics, error) {
	as.recomputeUser(ctx, uid)

	today := calendar.Today(now, as.loc)
	weekStart := calendar.WeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 6)
	monthStart := calendar.MonthStart(today)
	monthEnd := calendar.MonthEnd(today)

	habits, err := as.habitsRepo.GetByUserID(ctx, uid, false)
	if err != nil {
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	active := make([]*entity.Habit, 0, len(habits))
	for _, h := range habits {
		if h.IsActive {
			active = append(active, h)
		}
	}

	total, err := as.completionsRepo.CountByUser(ctx, uid, repository.DateRange{To: &today})
	if err != nil {
		return nil, fmt.Errorf("completions repository error: %w", err)
	}

	// The current week may start in the previous month or end in the next
	// one, so fetch the union of both buckets once.
	from, to := monthStart, monthEnd
	if weekStart.Before(from) {
		from = weekStart
	}
	if weekEnd.After(to) {
		to = weekEnd
	}
	recent, err := as.completionsRepo.ListByUser(ctx, uid, repository.DateRange{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("completions repository error: %w", err)
	}

	res := &entity.Analytics{
		TotalHabits:        len(habits),
		ActiveHabits:       len(active),
		TotalCompletions:   total,
		WeeklyCompletions:  emptyHistogram(weekStart, weekEnd),
		MonthlyCompletions: emptyHistogram(monthStart, monthEnd),
	}
	monthByHabit := make(map[uuid.UUID]int)
	for _, c := range recent {
		day := calendar.Day(c.Date)
		key := calendar.Format(day)
		if _, ok := res.WeeklyCompletions[key]; ok {
			res.WeeklyCompletions[key]++
		}
		if _, ok := res.MonthlyCompletions[key]; ok {
			res.MonthlyCompletions[key]++
		}
		if day.After(today) {
			continue
		}
		if !day.Before(weekStart) && !day.After(weekEnd) {
			res.CompletionsThisWeek++
		}
		if !day.Before(monthStart) {
			res.CompletionsThisMonth++
			monthByHabit[c.HabitID]++
		}
	}
	res.OverallCompletionRate = completionRate(res.CompletionsThisMonth, len(active)*calendar.DaysInclusive(monthStart, today))

	res.Streaks, err = as.listStreaks(ctx, uid)
	if err != nil {
		return nil, err
	}

	res.HabitStats = make([]*entity.HabitStats, 0, len(active))
	for _, h := range active {
		s, err := as.streaksRepo.Get(ctx, uid, h.ID)
		if err != nil {
			return nil, fmt.Errorf("streaks repository error: %w", err)
		}
		days := calendar.DaysInclusive(calendar.Day(h.CreatedAt.In(as.loc)), today)
		stats := &entity.HabitStats{
			HabitID:              h.ID,
			HabitTitle:           h.Title,
			CompletionsThisMonth: monthByHabit[h.ID],
			CompletionRate:       completionRate(monthByHabit[h.ID], days),
		}
		if s != nil {
			stats.CurrentStreak = s.CurrentStreak
			stats.LongestStreak = s.LongestStreak
			stats.LastCompletionDate = s.LastCompletionDate
		}
		res.HabitStats = append(res.HabitStats, stats)
	}
	return res, nil
}

func (as *AnalyticsService) GetStreaks(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error) {
	as.recomputeUser(ctx, uid)
	return as.listStreaks(ctx, uid)
}

func (as *AnalyticsService) listStreaks(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error) {
	streaks, err := as.streaksRepo.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("streaks repository error: %w", err)
	}
	return streaks, nil
}

func (as *AnalyticsService) GetHabitStreak(ctx context.Context, habitID, uid uuid.UUID) (*entity.Streak, error) {
	habit, err := as.habitsRepo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	if habit.UserID != uid {
		return nil, errorvalues.ErrWrongOwner
	}
	if as.recomputer != nil && habit.IsActive {
		if err = as.recomputer.Recompute(ctx, uid, habitID); err != nil {
			as.logger.Warn("recomputation before read failed, serving stored streak",
				slog.String("habit_id", habitID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	s, err := as.streaksRepo.Get(ctx, uid, habitID)
	if err != nil {
		return nil, fmt.Errorf("streaks repository error: %w", err)
	}
	if s == nil {
		s = &entity.Streak{UserID: uid, HabitID: habitID}
	}
	s.HabitTitle = habit.Title
	return s, nil
}

// recomputeUser refreshes stored streaks before a read. Failures are logged
// and the stored records are served as they are.
func (as *AnalyticsService) recomputeUser(ctx context.Context, uid uuid.UUID) {
	if as.recomputer == nil {
		return
	}
	report := as.recomputer.RecomputeUser(ctx, uid)
	if report.Failed > 0 {
		as.logger.Warn("recomputation before read failed for some habits",
			slog.String("uid", uid.String()),
			slog.Int("failed", report.Failed),
		)
	}
}

// completionRate is done/expected as a percentage rounded to two decimals.
// Zero expected days count as one.
func completionRate(done, expected int) float64 {
	if expected <= 0 {
		expected = 1
	}
	return math.Round(float64(done)/float64(expected)*100*100) / 100
}

func emptyHistogram(from, to time.Time) map[string]int {
	h := make(map[string]int, calendar.DaysInclusive(from, to))
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		h[calendar.Format(d)] = 0
	}
	return h
}
