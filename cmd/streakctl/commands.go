package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/limbo/streakd/internal/app"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/internal/scheduler"
	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/config"
	jwtservice "github.com/limbo/streakd/pkg/jwt_service"
	"github.com/limbo/streakd/pkg/logger"
)

type rootOptions struct {
	envFile  string
	logLevel string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "streakctl",
		Short:        "Operator tasks for streakd",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.envFile != "" {
				config.EnvFile = opts.envFile
			}
			lg, _ := logger.New(logger.Config{Level: opts.logLevel})
			slog.SetDefault(lg)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load instead of ./configs/.env")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newRecomputeCommand())
	cmd.AddCommand(newTokenCommand())
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := app.LoadSettings(config.New())
			pool := repository.Connect(&settings.DB)
			if err := app.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newRecomputeCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild streak records from the completion log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var uid uuid.UUID
			if user != "" {
				var err error
				if uid, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			settings := app.LoadSettings(config.New())
			pool := repository.Connect(&settings.DB)
			services := app.Build(pool, settings, nil, slog.Default())

			var (
				report service.PassReport
				err    error
			)
			if uid != uuid.Nil {
				report = services.Streaks.RecomputeUser(cmd.Context(), uid)
			} else {
				report, err = scheduler.New(services.Streaks, nil, scheduler.Config{}).RunStreakPass(cmd.Context())
			}
			printReport(cmd, report)
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d habits failed", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "only recompute habits of this user id")
	return cmd
}

func printReport(cmd *cobra.Command, r service.PassReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "habits: %d updated: %d reset: %d skipped: %d failed: %d took: %s\n",
		r.Habits, r.Updated, r.Reset, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
}

func newTokenCommand() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			secret := config.New().GetString("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := jwtservice.New(secret).WithTTL(ttl).GenerateToken(uid)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", jwtservice.DefaultTokenTTL, "token lifetime")
	cmd.MarkFlagRequired("user")
	return cmd
}
