// Package app assembles the service graph shared by the API server and the
// operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/limbo/streakd/internal/cache"
	"github.com/limbo/streakd/internal/notify"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/migrations"
	"github.com/limbo/streakd/pkg/cleanup"
	"github.com/limbo/streakd/pkg/config"
)

const (
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheNone   = "none"
)

type Settings struct {
	APIAddress string
	DB         repository.PGCfg
	JWTSecret  string

	CacheBackend string
	RedisURL     string

	StreakInterval   time.Duration
	StreakOnStart    bool
	StreakOnRead     bool
	ReminderInterval time.Duration
	Location         *time.Location
	RunMigrations    bool
}

func LoadSettings(cfg *config.Config) Settings {
	return Settings{
		APIAddress: cfg.GetStringOr("API_ADDRESS", ":8080"),
		DB: repository.PGCfg{
			Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
			Username: cfg.GetString("POSTGRES_USER"),
			Password: cfg.GetString("POSTGRES_PASSWORD"),
			DB:       cfg.GetString("POSTGRES_DB"),
		},
		JWTSecret:        cfg.GetString("JWT_SECRET"),
		CacheBackend:     cfg.GetStringOr("CACHE_BACKEND", CacheNone),
		RedisURL:         cfg.GetStringOr("REDIS_URL", "redis://localhost:6379/0"),
		StreakInterval:   cfg.GetDuration("STREAK_RECOMPUTE_INTERVAL", time.Hour),
		StreakOnStart:    cfg.GetBool("STREAK_RECOMPUTE_ON_START", false),
		StreakOnRead:     cfg.GetBool("STREAK_RECOMPUTE_ON_READ", true),
		ReminderInterval: cfg.GetDuration("REMINDER_SWEEP_INTERVAL", time.Minute),
		Location:         cfg.GetLocation("APP_TIMEZONE"),
		RunMigrations:    cfg.GetBool("RUN_MIGRATIONS", false),
	}
}

// OpenCache connects the configured cache backend and registers its closing.
func OpenCache(ctx context.Context, s Settings, logger *slog.Logger) (*cache.Cache, error) {
	var backend cache.Backend
	switch s.CacheBackend {
	case CacheRedis:
		rb, err := cache.DialRedis(ctx, s.RedisURL)
		if err != nil {
			return nil, err
		}
		backend = rb
	case CacheBadger:
		bb, err := cache.OpenBadgerInMemory()
		if err != nil {
			return nil, fmt.Errorf("opening badger: %w", err)
		}
		backend = bb
	case CacheNone, "":
		return cache.Disabled(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", s.CacheBackend)
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing " + s.CacheBackend + " cache",
		F:    backend.Close,
	})
	logger.Info("cache enabled", slog.String("backend", s.CacheBackend))
	return cache.New(backend, logger), nil
}

// Migrate applies pending schema migrations over the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrations.Up(ctx, db)
}

type Services struct {
	Habits      *service.HabitsService
	Completions *service.CompletionsService
	Streaks     *service.StreakService
	Analytics   service.AnalyticsServiceI
	Reminders   *service.RemindersService
}

// Build wires repositories over conn and the services on top of them.
func Build(conn repository.PgConnection, s Settings, c *cache.Cache, logger *slog.Logger) *Services {
	if c == nil {
		c = cache.Disabled()
	}
	habitsRepo := repository.NewHabitsRepoWithConn(conn)
	completionsRepo := repository.NewCompletionsRepoWithConn(conn)
	streaksRepo := repository.NewStreaksRepoWithConn(conn)
	invalidator := cache.NewInvalidator(c)

	streaks := service.NewStreakService(habitsRepo, completionsRepo, streaksRepo, invalidator, service.StreakOpts{
		Location: s.Location,
		Logger:   logger,
	})
	opts := service.AnalyticsOpts{
		Location: s.Location,
		Logger:   logger,
	}
	if s.StreakOnRead {
		opts.Recomputer = streaks
	}
	return &Services{
		Habits:      service.NewHabitsService(habitsRepo, c, invalidator),
		Completions: service.NewCompletionsService(habitsRepo, completionsRepo, c, streaks, s.Location),
		Streaks:     streaks,
		Analytics: service.NewCachedAnalytics(
			service.NewAnalyticsService(habitsRepo, completionsRepo, streaksRepo, opts), c).WithLocation(s.Location),
		Reminders: service.NewRemindersService(habitsRepo, completionsRepo, &notify.LogSink{Logger: logger}, s.Location, logger),
	}
}
