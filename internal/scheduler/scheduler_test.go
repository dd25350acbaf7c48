package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/scheduler"
	"github.com/limbo/streakd/internal/service"
)

type passStub struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (p *passStub) RecomputeAll(ctx context.Context) (service.PassReport, error) {
	p.calls.Add(1)
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
		}
	}
	return service.PassReport{Habits: 1, Updated: 1}, p.err
}

type sweepStub struct {
	calls atomic.Int32
	last  atomic.Value
}

func (s *sweepStub) SweepReminders(_ context.Context, now time.Time) (int, error) {
	s.calls.Add(1)
	s.last.Store(now)
	return 1, nil
}

func TestRunStreakPass(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		pass := &passStub{}
		s := scheduler.New(pass, nil, scheduler.Config{})
		report, err := s.RunStreakPass(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, report.Updated)
	})
	t.Run("pass error", func(t *testing.T) {
		pass := &passStub{err: errors.New("db error")}
		s := scheduler.New(pass, nil, scheduler.Config{})
		_, err := s.RunStreakPass(ctx)
		assert.Error(t, err)
		// the guard is released after a failure
		_, err = s.RunStreakPass(ctx)
		assert.NotErrorIs(t, err, errorvalues.ErrPassInProgress)
	})
	t.Run("passes never overlap", func(t *testing.T) {
		pass := &passStub{release: make(chan struct{})}
		s := scheduler.New(pass, nil, scheduler.Config{})
		done := make(chan error, 1)
		go func() {
			_, err := s.RunStreakPass(ctx)
			done <- err
		}()
		require.Eventually(t, func() bool { return pass.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		_, err := s.RunStreakPass(ctx)
		assert.ErrorIs(t, err, errorvalues.ErrPassInProgress)

		close(pass.release)
		assert.NoError(t, <-done)
		_, err = s.RunStreakPass(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), pass.calls.Load())
	})
}

func TestSchedulerLoops(t *testing.T) {
	t.Run("both loops tick", func(t *testing.T) {
		pass := &passStub{}
		sweep := &sweepStub{}
		at := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
		s := scheduler.New(pass, sweep, scheduler.Config{
			StreakInterval:   10 * time.Millisecond,
			ReminderInterval: 10 * time.Millisecond,
			Clock:            func() time.Time { return at },
		})
		s.Start(context.Background())
		require.Eventually(t, func() bool {
			return pass.calls.Load() >= 2 && sweep.calls.Load() >= 2
		}, time.Second, 5*time.Millisecond)
		s.Stop()

		assert.Equal(t, at, sweep.last.Load())
		calls := pass.calls.Load()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, calls, pass.calls.Load())
	})
	t.Run("run on start", func(t *testing.T) {
		pass := &passStub{}
		s := scheduler.New(pass, nil, scheduler.Config{
			StreakInterval: time.Hour,
			RunOnStart:     true,
		})
		s.Start(context.Background())
		defer s.Stop()
		require.Eventually(t, func() bool { return pass.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	})
	t.Run("stop interrupts a running pass", func(t *testing.T) {
		pass := &passStub{release: make(chan struct{})}
		s := scheduler.New(pass, nil, scheduler.Config{
			StreakInterval: time.Hour,
			RunOnStart:     true,
		})
		s.Start(context.Background())
		require.Eventually(t, func() bool { return pass.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		stopped := make(chan struct{})
		go func() {
			s.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("scheduler didn't stop")
		}
	})
	t.Run("zero interval disables loop", func(t *testing.T) {
		sweep := &sweepStub{}
		s := scheduler.New(nil, sweep, scheduler.Config{})
		s.Start(context.Background())
		time.Sleep(20 * time.Millisecond)
		s.Stop()
		assert.Equal(t, int32(0), sweep.calls.Load())
	})
}
