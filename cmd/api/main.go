// @title Habit streak API
// @description Habit tracking API with completion log, streaks and analytics
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/limbo/streakd/internal/api"
	"github.com/limbo/streakd/internal/app"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/internal/scheduler"
	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/cleanup"
	"github.com/limbo/streakd/pkg/config"
	jwtservice "github.com/limbo/streakd/pkg/jwt_service"
	"github.com/limbo/streakd/pkg/logger"
)

func init() {
	service.InitValidator()
}

func main() {
	cfg := config.New()
	settings := app.LoadSettings(cfg)
	if settings.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	lg, logCloser := logger.New(logger.Config{
		Environment: cfg.GetString("ENVIRONMENT"),
		Level:       cfg.GetString("LOG_LEVEL"),
		File:        cfg.GetString("LOG_FILE"),
	})
	slog.SetDefault(lg)
	cleanup.Register(&cleanup.Job{Name: "closing log file", F: logCloser.Close})
	defer cleanup.CleanUp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := repository.Connect(&settings.DB)
	if settings.RunMigrations {
		if err := app.Migrate(ctx, pool); err != nil {
			lg.Error("migrations error", slog.String("error", err.Error()))
			return
		}
		lg.Info("migrations applied")
	}
	c, err := app.OpenCache(ctx, settings, lg)
	if err != nil {
		lg.Error("cache error", slog.String("error", err.Error()))
		return
	}
	services := app.Build(pool, settings, c, lg)

	sched := scheduler.New(services.Streaks, services.Reminders, scheduler.Config{
		StreakInterval:   settings.StreakInterval,
		RunOnStart:       settings.StreakOnStart,
		ReminderInterval: settings.ReminderInterval,
		Logger:           lg,
	})
	sched.Start(ctx)
	cleanup.Register(&cleanup.Job{
		Name: "stopping scheduler",
		F: func() error {
			sched.Stop()
			return nil
		},
	})

	serv := api.New(&api.ServicesList{
		HabitsService:      services.Habits,
		CompletionsService: services.Completions,
		AnalyticsService:   services.Analytics,
		JwtService:         jwtservice.New(settings.JWTSecret),
		Logger:             lg,
	})
	if err = serv.Run(ctx, settings.APIAddress); err != nil {
		lg.Error("server error", slog.String("error", err.Error()))
	}
}
