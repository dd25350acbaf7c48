// Package scheduler runs the periodic streak pass and the reminder sweep.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/metrics"
	"github.com/limbo/streakd/internal/service"
)

type StreakPass interface {
	RecomputeAll(ctx context.Context) (service.PassReport, error)
}

type ReminderSweeper interface {
	SweepReminders(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	StreakInterval time.Duration
	// RunOnStart runs a streak pass right after Start instead of waiting a full interval
	RunOnStart       bool
	ReminderInterval time.Duration
	Clock            func() time.Time
	Logger           *slog.Logger
}

// Scheduler owns both background loops. A zero interval disables its loop.
type Scheduler struct {
	streaks   StreakPass
	reminders ReminderSweeper
	cfg       Config

	passRunning atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

func New(streaks StreakPass, reminders ReminderSweeper, cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		streaks:   streaks,
		reminders: reminders,
		cfg:       cfg,
	}
}

// Start launches the loops. They run until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		if s.streaks != nil && s.cfg.StreakInterval > 0 {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if s.cfg.RunOnStart {
					s.streakTick(ctx)
				}
				s.loop(ctx, s.cfg.StreakInterval, s.streakTick)
			}()
		}
		if s.reminders != nil && s.cfg.ReminderInterval > 0 {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.loop(ctx, s.cfg.ReminderInterval, s.reminderTick)
			}()
		}
		s.cfg.Logger.Info("scheduler started",
			slog.Duration("streak_interval", s.cfg.StreakInterval),
			slog.Duration("reminder_interval", s.cfg.ReminderInterval),
		)
	})
}

// Stop cancels running work and waits for both loops to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.cfg.Logger.Info("scheduler stopped")
	})
}

// RunStreakPass recomputes every active habit once. It fails with
// ErrPassInProgress instead of overlapping a pass that is still running.
func (s *Scheduler) RunStreakPass(ctx context.Context) (service.PassReport, error) {
	if !s.passRunning.CompareAndSwap(false, true) {
		metrics.StreakPassesSkipped.Inc()
		return service.PassReport{}, errorvalues.ErrPassInProgress
	}
	defer s.passRunning.Store(false)
	return s.streaks.RecomputeAll(ctx)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (s *Scheduler) streakTick(ctx context.Context) {
	_, err := s.RunStreakPass(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errorvalues.ErrPassInProgress):
		s.cfg.Logger.Warn("skipping streak pass, previous one still running")
	default:
		s.cfg.Logger.Error("streak pass failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) reminderTick(ctx context.Context) {
	sent, err := s.reminders.SweepReminders(ctx, s.cfg.Clock())
	if err != nil {
		s.cfg.Logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		return
	}
	if sent > 0 {
		s.cfg.Logger.Debug("reminders sent", slog.Int("count", sent))
	}
}
