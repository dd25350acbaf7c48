// Package metrics holds the Prometheus collectors of the service. They are
// registered on the default registry and served by the API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute results.
const (
	ResultUpdated = "updated"
	ResultReset   = "reset"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Cache results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	StreakRecomputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakd_streak_recomputations_total",
		Help: "Streak recomputations by result",
	}, []string{"result"})

	StreakPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streakd_streak_pass_duration_seconds",
		Help:    "Duration of a full streak recomputation pass",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	StreakPassesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streakd_streak_passes_skipped_total",
		Help: "Passes not started because another one was still running",
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakd_cache_requests_total",
		Help: "Derived-state cache lookups by kind and result",
	}, []string{"kind", "result"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streakd_cache_invalidations_total",
		Help: "Invalidation events by cause",
	}, []string{"event"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streakd_reminders_sent_total",
		Help: "Reminder notifications handed to the sink",
	})
)
