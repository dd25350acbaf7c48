package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/streakd/internal/cache"
	"github.com/limbo/streakd/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenBackend struct {
	cache.NoopBackend
}

func (brokenBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestCacheRoundTrip(t *testing.T) {
	c := cache.New(newBadger(t), nil)
	ctx := context.Background()
	last := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	in := []*entity.Streak{{UserID: uuid.New(), HabitID: uuid.New(), CurrentStreak: 2, LongestStreak: 5, LastCompletionDate: &last}}

	var out []*entity.Streak
	assert.False(t, c.Get(ctx, "streaks:user:x", &out))
	c.Set(ctx, "streaks:user:x", in, time.Minute)
	require.True(t, c.Get(ctx, "streaks:user:x", &out))
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].LongestStreak)
	assert.True(t, last.Equal(*out[0].LastCompletionDate))
}

func TestCacheCorruptValueIsMiss(t *testing.T) {
	b := newBadger(t)
	c := cache.New(b, nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, "habit:x", []byte("{not json"), time.Minute))
	var h entity.Habit
	assert.False(t, c.Get(ctx, "habit:x", &h))
	_, err := b.Get(ctx, "habit:x")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	t.Run("loads once", func(t *testing.T) {
		c := cache.New(newBadger(t), nil)
		calls := 0
		load := func(context.Context) (int, error) {
			calls++
			return 42, nil
		}
		for range 3 {
			v, err := cache.Fetch(ctx, c, "analytics:user:y", time.Minute, load)
			require.NoError(t, err)
			assert.Equal(t, 42, v)
		}
		assert.Equal(t, 1, calls)
	})
	t.Run("load error is not cached", func(t *testing.T) {
		c := cache.New(newBadger(t), nil)
		_, err := cache.Fetch(ctx, c, "analytics:user:z", time.Minute, func(context.Context) (int, error) {
			return 0, errors.New("store down")
		})
		assert.EqualError(t, err, "store down")
		var v int
		assert.False(t, c.Get(ctx, "analytics:user:z", &v))
	})
	t.Run("broken backend degrades to loading", func(t *testing.T) {
		c := cache.New(brokenBackend{}, nil)
		calls := 0
		for range 2 {
			v, err := cache.Fetch(ctx, c, "streaks:user:z", time.Minute, func(context.Context) (string, error) {
				calls++
				return "fresh", nil
			})
			require.NoError(t, err)
			assert.Equal(t, "fresh", v)
		}
		assert.Equal(t, 2, calls)
	})
}

func TestKeys(t *testing.T) {
	uid := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	hid := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "streak:user:11111111-1111-1111-1111-111111111111:habit:22222222-2222-2222-2222-222222222222", cache.StreakKey(uid, hid))
	assert.Equal(t, "analytics:user:11111111-1111-1111-1111-111111111111", cache.AnalyticsKey(uid))
	assert.Equal(t,
		"completions:user:11111111-1111-1111-1111-111111111111:habit:22222222-2222-2222-2222-222222222222:2024-01-01:none",
		cache.CompletionsKey(uid, hid, &from, nil),
	)
	assert.Equal(t, "habits:user:11111111-1111-1111-1111-111111111111:active:true", cache.HabitListKey(uid, true))
}
