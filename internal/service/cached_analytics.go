package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/cache"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/entity"
)

// CachedAnalytics serves analytics reads from the cache and falls through to
// the wrapped service on a miss. Entries are dropped by cache.Invalidator.
type CachedAnalytics struct {
	next  AnalyticsServiceI
	cache *cache.Cache
	loc   *time.Location
}

func NewCachedAnalytics(next AnalyticsServiceI, c *cache.Cache) *CachedAnalytics {
	return &CachedAnalytics{next: next, cache: c, loc: time.UTC}
}

// WithLocation sets the zone that decides which day an analytics entry
// belongs to. It must match the wrapped service's location.
func (ca *CachedAnalytics) WithLocation(loc *time.Location) *CachedAnalytics {
	if loc != nil {
		ca.loc = loc
	}
	return ca
}

// datedAnalytics ties an analytics entry to the day it was computed for.
type datedAnalytics struct {
	Day       string            `json:"day"`
	Analytics *entity.Analytics `json:"analytics"`
}

// GetAnalytics treats an entry computed for another day as a miss, so week
// and month buckets roll over at midnight even before the TTL runs out.
func (ca *CachedAnalytics) GetAnalytics(ctx context.Context, uid uuid.UUID, now time.Time) (*entity.Analytics, error) {
	key := cache.AnalyticsKey(uid)
	day := calendar.Format(calendar.Today(now, ca.loc))
	var cached datedAnalytics
	if ca.cache.Get(ctx, key, &cached) && cached.Day == day && cached.Analytics != nil {
		return cached.Analytics, nil
	}
	a, err := ca.next.GetAnalytics(ctx, uid, now)
	if err != nil {
		return nil, err
	}
	ca.cache.Set(ctx, key, datedAnalytics{Day: day, Analytics: a}, cache.AnalyticsTTL)
	return a, nil
}

func (ca *CachedAnalytics) GetStreaks(ctx context.Context, uid uuid.UUID) ([]*entity.Streak, error) {
	return cache.Fetch(ctx, ca.cache, cache.StreakListKey(uid), cache.StreakListTTL, func(ctx context.Context) ([]*entity.Streak, error) {
		return ca.next.GetStreaks(ctx, uid)
	})
}

// GetHabitStreak caches per owner: the key holds the user id, and the wrapped
// service rejects foreign habits before anything is stored.
func (ca *CachedAnalytics) GetHabitStreak(ctx context.Context, habitID, uid uuid.UUID) (*entity.Streak, error) {
	return cache.Fetch(ctx, ca.cache, cache.StreakKey(uid, habitID), cache.StreakTTL, func(ctx context.Context) (*entity.Streak, error) {
		return ca.next.GetHabitStreak(ctx, habitID, uid)
	})
}
