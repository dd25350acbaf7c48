package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limbo/streakd/internal/service"
)

type Server struct {
	mx                 *chi.Mux
	habitsService      service.HabitsServiceI
	completionsService service.CompletionsServiceI
	analyticsService   service.AnalyticsServiceI
	jwtService         JWTServiceI
	logger             *slog.Logger
	clock              func() time.Time
}

type ServicesList struct {
	HabitsService      service.HabitsServiceI
	CompletionsService service.CompletionsServiceI
	AnalyticsService   service.AnalyticsServiceI
	JwtService         JWTServiceI
	Logger             *slog.Logger
	// Clock decides "now" for analytics and token checks. time.Now when nil
	Clock func() time.Time
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:                 chi.NewMux(),
		habitsService:      servicesOptions.HabitsService,
		completionsService: servicesOptions.CompletionsService,
		analyticsService:   servicesOptions.AnalyticsService,
		jwtService:         servicesOptions.JwtService,
		logger:             servicesOptions.Logger,
		clock:              servicesOptions.Clock,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.mountEndpoints()
	return s
}

func (s *Server) mountEndpoints() {
	s.mx.Handle("/metrics", promhttp.Handler())
	s.mx.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware, s.AuthMiddleware, s.LoggerExtensionMiddleware)

		r.Route("/habits", func(r chi.Router) {
			r.Post("/", s.CreateHabit)
			r.Get("/", s.GetHabits)
			r.Get("/{id}", s.GetHabit)
			r.Patch("/{id}", s.UpdateHabit)
			r.Delete("/{id}", s.DeleteHabit)
			r.Get("/{id}/completions", s.ListHabitCompletions)
			r.Get("/{id}/streak", s.GetHabitStreak)
		})
		r.Route("/completions", func(r chi.Router) {
			r.Post("/", s.CreateCompletion)
			r.Get("/{id}", s.GetCompletion)
			r.Patch("/{id}", s.UpdateCompletion)
			r.Delete("/{id}", s.DeleteCompletion)
		})
		r.Get("/analytics", s.GetAnalytics)
		r.Get("/analytics/streaks", s.GetStreaks)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.mx,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server started", slog.String("address", address))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("api server shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("api server stopped")
	return nil
}
