package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/metrics"
)

// Invalidator decides which entries a mutation makes stale. Entries are
// always deleted, never refreshed: the next read repopulates them.
type Invalidator struct {
	cache *Cache
}

func NewInvalidator(c *Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// CompletionMutated runs after a completion of habitID is created, updated
// or deleted. Every cached date range of the habit's completions goes, and so
// do the user's analytics and streak views built on them.
func (inv *Invalidator) CompletionMutated(ctx context.Context, uid, habitID uuid.UUID) {
	metrics.CacheInvalidations.WithLabelValues("completion").Inc()
	inv.cache.DeleteByPrefix(ctx, CompletionsPrefix(uid, habitID))
	inv.cache.Delete(ctx,
		StreakKey(uid, habitID),
		StreakListKey(uid),
		AnalyticsKey(uid),
	)
}

// StreakUpdated runs after a streak record of habitID was persisted.
func (inv *Invalidator) StreakUpdated(ctx context.Context, uid, habitID uuid.UUID) {
	metrics.CacheInvalidations.WithLabelValues("streak").Inc()
	inv.cache.Delete(ctx,
		StreakKey(uid, habitID),
		StreakListKey(uid),
		AnalyticsKey(uid),
	)
}

// HabitChanged runs after a habit is created or updated. Titles and the
// active flag feed both listings and analytics.
func (inv *Invalidator) HabitChanged(ctx context.Context, uid, habitID uuid.UUID) {
	metrics.CacheInvalidations.WithLabelValues("habit").Inc()
	inv.cache.DeleteByPrefix(ctx, HabitListPrefix(uid))
	inv.cache.Delete(ctx,
		HabitKey(habitID),
		StreakListKey(uid),
		AnalyticsKey(uid),
	)
}

// HabitDeleted runs after a habit and everything derived from it is gone.
func (inv *Invalidator) HabitDeleted(ctx context.Context, uid, habitID uuid.UUID) {
	metrics.CacheInvalidations.WithLabelValues("habit_deleted").Inc()
	inv.cache.DeleteByPrefix(ctx, HabitListPrefix(uid))
	inv.cache.DeleteByPrefix(ctx, CompletionsPrefix(uid, habitID))
	inv.cache.Delete(ctx,
		HabitKey(habitID),
		StreakKey(uid, habitID),
		StreakListKey(uid),
		AnalyticsKey(uid),
	)
}
