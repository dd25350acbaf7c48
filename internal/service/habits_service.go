package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/limbo/streakd/internal/cache"
	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/pkg/entity"
)

type HabitsService struct {
	repo        repository.HabitsRepositoryI
	cache       *cache.Cache
	invalidator *cache.Invalidator
}

func NewHabitsService(habitsRepo repository.HabitsRepositoryI, c *cache.Cache, invalidator *cache.Invalidator) *HabitsService {
	if habitsRepo == nil {
		log.Fatal("provided nil habitsRepo")
	}
	if c == nil {
		c = cache.Disabled()
	}
	if invalidator == nil {
		invalidator = cache.NewInvalidator(c)
	}
	return &HabitsService{
		repo:        habitsRepo,
		cache:       c,
		invalidator: invalidator,
	}
}

func (hs *HabitsService) CreateHabit(ctx context.Context, uid uuid.UUID, req CreateHabitRequest) (*entity.Habit, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	h := entity.Habit{
		UserID:       uid,
		Title:        req.Title,
		Description:  req.Description,
		IsActive:     req.IsActive == nil || *req.IsActive,
		ReminderTime: req.ReminderTime,
	}
	id, err := hs.repo.Create(ctx, &h)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserHasHabit) {
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	hs.invalidator.HabitChanged(ctx, uid, id)
	habit, err := hs.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	return habit, nil
}

func (hs *HabitsService) GetUserHabits(ctx context.Context, uid uuid.UUID, activeOnly bool) ([]*entity.Habit, error) {
	return cache.Fetch(ctx, hs.cache, cache.HabitListKey(uid, activeOnly), cache.HabitListTTL, func(ctx context.Context) ([]*entity.Habit, error) {
		habits, err := hs.repo.GetByUserID(ctx, uid, activeOnly)
		if err != nil {
			return nil, fmt.Errorf("habits repository error: %w", err)
		}
		return habits, nil
	})
}

func (hs *HabitsService) GetHabit(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error) {
	habit, err := cache.Fetch(ctx, hs.cache, cache.HabitKey(habitID), cache.HabitTTL, func(ctx context.Context) (*entity.Habit, error) {
		return hs.getHabit(ctx, habitID)
	})
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, errorvalues.ErrWrongOwner
	}
	return habit, nil
}

func (hs *HabitsService) UpdateHabit(ctx context.Context, habitID, userID uuid.UUID, req UpdateHabitRequest) (*entity.Habit, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	habit, err := hs.getHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, errorvalues.ErrWrongOwner
	}
	if req.Title != nil {
		habit.Title = *req.Title
	}
	if req.Description != nil {
		habit.Description = *req.Description
	}
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}
	if req.ReminderTime != nil {
		habit.ReminderTime = req.ReminderTime
	}
	if req.ClearReminder {
		habit.ReminderTime = nil
	}
	err = hs.repo.Update(ctx, habit)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrHabitNotFound), errors.Is(err, errorvalues.ErrUserHasHabit):
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	hs.invalidator.HabitChanged(ctx, userID, habitID)
	return hs.getHabit(ctx, habitID)
}

func (hs *HabitsService) DeleteHabit(ctx context.Context, habitID, userID uuid.UUID) error {
	habit, err := hs.getHabit(ctx, habitID)
	if err != nil {
		return err
	}
	if habit.UserID != userID {
		return errorvalues.ErrWrongOwner
	}
	err = hs.repo.Delete(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		return fmt.Errorf("habits repository error: %w", err)
	}
	hs.invalidator.HabitDeleted(ctx, userID, habitID)
	return nil
}

func (hs *HabitsService) getHabit(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	habit, err := hs.repo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("habits repository error: %w", err)
	}
	return habit, nil
}
