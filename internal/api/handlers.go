package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/entity"
	"github.com/limbo/streakd/pkg/httputil"
)

const requestTimeout = 10 * time.Second

type CreateHabitRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"desc"`
	IsActive     *bool   `json:"is_active,omitempty"`
	ReminderTime *string `json:"reminder_time,omitempty"`
}

type UpdateHabitRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"desc,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	ReminderTime  *string `json:"reminder_time,omitempty"`
	ClearReminder bool    `json:"clear_reminder,omitempty"`
}

type GetHabitsResponse struct {
	UserID string          `json:"uid"`
	Habits []*entity.Habit `json:"habits"`
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateHabitRequest
	err = httputil.DecodeJSON(w, r, &req)
	if err != nil {
		logger.Error("create habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.CreateHabit(ctx, uid, service.CreateHabitRequest{
		Title:        req.Title,
		Description:  req.Description,
		IsActive:     req.IsActive,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		writeServiceError(w, logger, "create habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("habit created", slog.String("habit_id", habit.ID.String()))
}

func (s *Server) GetHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get habits error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	// anything but a true value lists every habit
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habits, err := s.habitsService.GetUserHabits(ctx, uid, activeOnly)
	if err != nil {
		writeServiceError(w, logger, "get habits", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetHabitsResponse{
		UserID: uid.String(),
		Habits: habits,
	})
	logger.Info("habits provided")
}

func (s *Server) GetHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := habitPathParams(w, r, logger, "get habit")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.GetHabit(ctx, id, uid)
	if err != nil {
		writeServiceError(w, logger, "get habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := habitPathParams(w, r, logger, "update habit")
	if !ok {
		return
	}
	var req UpdateHabitRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Error("update habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.UpdateHabit(ctx, id, uid, service.UpdateHabitRequest{
		Title:         req.Title,
		Description:   req.Description,
		IsActive:      req.IsActive,
		ReminderTime:  req.ReminderTime,
		ClearReminder: req.ClearReminder,
	})
	if err != nil {
		writeServiceError(w, logger, "update habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("habit updated", slog.String("habit_id", id.String()))
}

func (s *Server) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, id, ok := habitPathParams(w, r, logger, "habit deletion")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	err := s.habitsService.DeleteHabit(ctx, id, uid)
	if err != nil {
		writeServiceError(w, logger, "habit deletion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("habit deleted", slog.String("habit_id", id.String()))
}

// habitPathParams reads the caller and the habit id from the path. On failure
// the response is already written.
func habitPathParams(w http.ResponseWriter, r *http.Request, logger *slog.Logger, action string) (uuid.UUID, uuid.UUID, bool) {
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error(action + " error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error(action + " error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return uid, id, true
}

// writeServiceError maps service errors to statuses. A habit of another
// user is reported exactly like a missing one.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrHabitNotFound), errors.Is(err, errorvalues.ErrWrongOwner):
		logger.Error(action+" error: habit not found", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrCompletionNotFound):
		logger.Error(action + " error: completion not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "completion doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrUserHasHabit):
		logger.Error(action + " error: attempt to create existed habit")
		httputil.WriteErrorResponse(w, http.StatusConflict, "habit already exists", nil)
	case errors.Is(err, errorvalues.ErrCompletionExists):
		logger.Error(action + " error: habit already completed on this date")
		httputil.WriteErrorResponse(w, http.StatusConflict, "habit already completed on this date", nil)
	case errors.Is(err, errorvalues.ErrValidation),
		errors.Is(err, errorvalues.ErrInvalidDateRange),
		errors.Is(err, errorvalues.ErrCompletionDateNotAllowed),
		errors.Is(err, errorvalues.ErrInvalidReminderTime):
		logger.Error(action+" error: invalid request", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, errorvalues.ErrStoreUnavailable):
		logger.Error(action+" error: store unavailable", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "storage is unavailable, try again later", nil)
	default:
		logger.Error(action+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error", nil)
	}
}
