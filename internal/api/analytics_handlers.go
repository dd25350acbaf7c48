package api

import (
	"context"
	"net/http"

	"github.com/limbo/streakd/pkg/httputil"
)

func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get analytics error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	analytics, err := s.analyticsService.GetAnalytics(ctx, uid, s.clock())
	if err != nil {
		writeServiceError(w, logger, "get analytics", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, analytics)
	logger.Info("analytics provided")
}

func (s *Server) GetStreaks(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get streaks error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	streaks, err := s.analyticsService.GetStreaks(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "get streaks", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"streaks": streaks})
}

func (s *Server) GetHabitStreak(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, habitID, ok := habitPathParams(w, r, logger, "get habit streak")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	streak, err := s.analyticsService.GetHabitStreak(ctx, habitID, uid)
	if err != nil {
		writeServiceError(w, logger, "get habit streak", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, streak)
}
