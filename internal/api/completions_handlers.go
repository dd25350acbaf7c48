package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/httputil"
)

type CreateCompletionRequest struct {
	HabitID string  `json:"habit_id"`
	Date    string  `json:"completion_date"`
	Notes   *string `json:"notes,omitempty"`
}

type UpdateCompletionRequest struct {
	Notes *string `json:"notes"`
}

func (s *Server) CreateCompletion(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create completion error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateCompletionRequest
	if err = httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Error("create completion error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	habitID, err := uuid.Parse(req.HabitID)
	if err != nil {
		logger.Error("create completion error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	date, err := calendar.Parse(req.Date)
	if err != nil {
		logger.Error("create completion error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid completion date", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	c, err := s.completionsService.CreateCompletion(ctx, uid, service.CreateCompletionRequest{
		HabitID: habitID,
		Date:    date,
		Notes:   req.Notes,
	})
	if err != nil {
		writeServiceError(w, logger, "create completion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, c)
	logger.Info("completion created", slog.String("habit_id", habitID.String()), slog.String("date", req.Date))
}

func (s *Server) GetCompletion(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := completionPathParams(w, r, logger, "get completion")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	c, err := s.completionsService.GetCompletion(ctx, id, uid)
	if err != nil {
		writeServiceError(w, logger, "get completion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, c)
}

func (s *Server) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := completionPathParams(w, r, logger, "update completion")
	if !ok {
		return
	}
	var req UpdateCompletionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Error("update completion error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	c, err := s.completionsService.UpdateNotes(ctx, id, uid, req.Notes)
	if err != nil {
		writeServiceError(w, logger, "update completion", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, c)
}

func (s *Server) DeleteCompletion(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := completionPathParams(w, r, logger, "completion deletion")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := s.completionsService.DeleteCompletion(ctx, id, uid); err != nil {
		writeServiceError(w, logger, "completion deletion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("completion deleted", slog.Int64("completion_id", id))
}

// ListHabitCompletions serves GET /habits/{id}/completions?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (s *Server) ListHabitCompletions(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, habitID, ok := habitPathParams(w, r, logger, "list completions")
	if !ok {
		return
	}
	from, err := optionalDate(r, "from")
	if err != nil {
		logger.Error("list completions error: invalid from date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid from date", err)
		return
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		logger.Error("list completions error: invalid to date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid to date", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	list, err := s.completionsService.ListHabitCompletions(ctx, habitID, uid, from, to)
	if err != nil {
		writeServiceError(w, logger, "list completions", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, list)
}

func completionPathParams(w http.ResponseWriter, r *http.Request, logger *slog.Logger, action string) (uuid.UUID, int64, bool) {
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error(action + " error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return uuid.Nil, 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		logger.Error(action + " error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid completion id in path value", nil)
		return uuid.Nil, 0, false
	}
	return uid, id, true
}

func optionalDate(r *http.Request, param string) (*time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
