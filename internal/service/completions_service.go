package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/cache"
	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/entity"
)

type CompletionsService struct {
	habitsRepo      repository.HabitsRepositoryI
	completionsRepo repository.CompletionsRepositoryI
	cache           *cache.Cache
	hook            CompletionHook
	loc             *time.Location
	clock           Clock
}

func NewCompletionsService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI, c *cache.Cache, hook CompletionHook, loc *time.Location) *CompletionsService {
	if habitsRepo == nil || completionsRepo == nil {
		log.Fatal("on completions service provided nil repos")
	}
	if hook == nil {
		log.Fatal("on completions service provided nil hook")
	}
	if c == nil {
		c = cache.Disabled()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CompletionsService{
		habitsRepo:      habitsRepo,
		completionsRepo: completionsRepo,
		cache:           c,
		hook:            hook,
		loc:             loc,
		clock:           time.Now,
	}
}

// WithClock replaces the wall clock used to reject future dates.
func (serv *CompletionsService) WithClock(clock Clock) *CompletionsService {
	serv.clock = clock
	return serv
}

func (serv *CompletionsService) CreateCompletion(ctx context.Context, uid uuid.UUID, req CreateCompletionRequest) (*entity.Completion, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.HabitID == uuid.Nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: habit id and date are required", errorvalues.ErrValidation)
	}
	day := calendar.Day(req.Date)
	if day.After(calendar.Today(serv.clock(), serv.loc)) {
		return nil, errorvalues.ErrCompletionDateNotAllowed
	}
	if _, err := serv.ownedHabit(ctx, req.HabitID, uid); err != nil {
		return nil, err
	}
	c := &entity.Completion{
		UserID:  uid,
		HabitID: req.HabitID,
		Date:    day,
		Notes:   req.Notes,
	}
	err := serv.completionsRepo.Create(ctx, c)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrCompletionExists), errors.Is(err, errorvalues.ErrHabitNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("completions repository error: %w", err)
	}
	serv.hook.OnCompletionMutated(ctx, uid, c.HabitID)
	return c, nil
}

func (serv *CompletionsService) GetCompletion(ctx context.Context, id int64, uid uuid.UUID) (*entity.Completion, error) {
	c, err := serv.completionsRepo.GetByID(ctx, id, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrCompletionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("completions repository error: %w", err)
	}
	return c, nil
}

// updateNotesRequest shares the notes rule of CreateCompletionRequest.
type updateNotesRequest struct {
	Notes *string `validate:"omitempty,max=1000"`
}

func (serv *CompletionsService) UpdateNotes(ctx context.Context, id int64, uid uuid.UUID, notes *string) (*entity.Completion, error) {
	if err := validateStruct(updateNotesRequest{Notes: notes}); err != nil {
		return nil, err
	}
	c, err := serv.completionsRepo.UpdateNotes(ctx, id, uid, notes)
	if err != nil {
		if errors.Is(err, errorvalues.ErrCompletionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("completions repository error: %w", err)
	}
	serv.hook.OnCompletionMutated(ctx, uid, c.HabitID)
	return c, nil
}

func (serv *CompletionsService) DeleteCompletion(ctx context.Context, id int64, uid uuid.UUID) error {
	habitID, err := serv.completionsRepo.Delete(ctx, id, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrCompletionNotFound) {
			return err
		}
		return fmt.Errorf("completions repository error: %w", err)
	}
	serv.hook.OnCompletionMutated(ctx, uid, habitID)
	return nil
}

func (serv *CompletionsService) ListHabitCompletions(ctx context.Context, habitID, uid uuid.UUID, from, to *time.Time) ([]*entity.Completion, error) {
	if from != nil {
		d := calendar.Day(*from)
		from = &d
	}
	if to != nil {
		d := calendar.Day(*to)
		to = &d
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, errorvalues.ErrInvalidDateRange
	}
	if _, err := serv.ownedHabit(ctx, habitID, uid); err != nil {
		return nil, err
	}
	key := cache.CompletionsKey(uid, habitID, from, to)
	return cache.Fetch(ctx, serv.cache, key, cache.CompletionsTTL, func(ctx context.Context) ([]*entity.Completion, error) {
		list, err := serv.completionsRepo.ListByHabit(ctx, uid, habitID, repository.DateRange{From: from, To: to})
		if err != nil {
			return nil, fmt.Errorf("completions repository error: %w", err)
		}
		return list, nil
	})
}

func (serv *CompletionsService) ownedHabit(ctx context.Context, habitID, uid uuid.UUID) (*entity.Habit, error) {
	habit, err := serv.habitsRepo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	if habit.UserID != uid {
		return nil, errorvalues.ErrWrongOwner
	}
	return habit, nil
}
