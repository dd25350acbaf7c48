package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streakd/internal/cache"
	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/repository/mocks"
	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/entity"
)

func newHabitsService(t *testing.T, c *cache.Cache) (*service.HabitsService, *mocks.MockHabitsRepositoryI) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockHabitsRepositoryI(ctrl)
	return service.NewHabitsService(repo, c, nil), repo
}

func TestCreateHabit(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		reminder := "08:30"
		repo.EXPECT().Create(gomock.Any(), &entity.Habit{
			UserID:       userID,
			Title:        testHabit.Title,
			Description:  testHabit.Description,
			IsActive:     true,
			ReminderTime: &reminder,
		}).Return(habitID, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)

		h, err := s.CreateHabit(ctx, userID, service.CreateHabitRequest{
			Title:        testHabit.Title,
			Description:  testHabit.Description,
			ReminderTime: &reminder,
		})
		assert.NoError(t, err)
		assert.Equal(t, testHabit, *h)
	})
	t.Run("inactive on request", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		inactive := false
		repo.EXPECT().Create(gomock.Any(), &entity.Habit{UserID: userID, Title: "x"}).Return(habitID, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		_, err := s.CreateHabit(ctx, userID, service.CreateHabitRequest{Title: "x", IsActive: &inactive})
		assert.NoError(t, err)
	})
	t.Run("validation", func(t *testing.T) {
		s, _ := newHabitsService(t, nil)
		_, err := s.CreateHabit(ctx, userID, service.CreateHabitRequest{})
		assert.ErrorIs(t, err, errorvalues.ErrValidation)

		bad := "25:00"
		_, err = s.CreateHabit(ctx, userID, service.CreateHabitRequest{Title: "x", ReminderTime: &bad})
		assert.ErrorIs(t, err, errorvalues.ErrValidation)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidReminderTime)
	})
	t.Run("habit duplication", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(uuid.Nil, errorvalues.ErrUserHasHabit)
		_, err := s.CreateHabit(ctx, userID, service.CreateHabitRequest{Title: testHabit.Title})
		assert.ErrorIs(t, err, errorvalues.ErrUserHasHabit)
	})
	t.Run("db error", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(uuid.Nil, errors.Join(errorvalues.ErrStoreUnavailable, errors.New("db error")))
		_, err := s.CreateHabit(ctx, userID, service.CreateHabitRequest{Title: testHabit.Title})
		assert.ErrorIs(t, err, errorvalues.ErrStoreUnavailable)
	})
}

func TestGetUserHabits(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByUserID(gomock.Any(), userID, true).Return([]*entity.Habit{habitCopy()}, nil)
		habits, err := s.GetUserHabits(ctx, userID, true)
		assert.NoError(t, err)
		require.Len(t, habits, 1)
		assert.Equal(t, testHabit, *habits[0])
	})
	t.Run("served from cache", func(t *testing.T) {
		s, repo := newHabitsService(t, newBadgerCache(t))
		repo.EXPECT().GetByUserID(gomock.Any(), userID, false).Return([]*entity.Habit{habitCopy()}, nil).Times(1)
		for range 3 {
			habits, err := s.GetUserHabits(ctx, userID, false)
			assert.NoError(t, err)
			require.Len(t, habits, 1)
			assert.Equal(t, testHabit, *habits[0])
		}
	})
	t.Run("db error", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByUserID(gomock.Any(), userID, false).Return(nil, errors.New("db error"))
		_, err := s.GetUserHabits(ctx, userID, false)
		assert.Error(t, err)
	})
}

func TestGetHabit(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		h, err := s.GetHabit(ctx, habitID, userID)
		assert.NoError(t, err)
		assert.Equal(t, testHabit, *h)
	})
	t.Run("wrong owner", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		_, err := s.GetHabit(ctx, habitID, uuid.New())
		assert.ErrorIs(t, err, errorvalues.ErrWrongOwner)
	})
	t.Run("wrong owner with cached habit", func(t *testing.T) {
		s, repo := newHabitsService(t, newBadgerCache(t))
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil).Times(1)
		_, err := s.GetHabit(ctx, habitID, userID)
		assert.NoError(t, err)
		_, err = s.GetHabit(ctx, habitID, uuid.New())
		assert.ErrorIs(t, err, errorvalues.ErrWrongOwner)
	})
	t.Run("habit not found", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(nil, errorvalues.ErrHabitNotFound)
		_, err := s.GetHabit(ctx, habitID, userID)
		assert.ErrorIs(t, err, errorvalues.ErrHabitNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(nil, errors.New("db error"))
		_, err := s.GetHabit(ctx, habitID, userID)
		assert.Error(t, err)
	})
}

func TestUpdateHabit(t *testing.T) {
	ctx := context.Background()
	t.Run("partial update", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		title := "renamed"
		updated := habitCopy()
		updated.Title = title

		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		repo.EXPECT().Update(gomock.Any(), updated).Return(nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(updated, nil)

		h, err := s.UpdateHabit(ctx, habitID, userID, service.UpdateHabitRequest{Title: &title})
		assert.NoError(t, err)
		assert.Equal(t, "renamed", h.Title)
		assert.Equal(t, testHabit.Description, h.Description)
	})
	t.Run("clear reminder", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		reminder := "07:00"
		stored := habitCopy()
		stored.ReminderTime = &reminder
		cleared := habitCopy()

		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(stored, nil)
		repo.EXPECT().Update(gomock.Any(), cleared).Return(nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(cleared, nil)

		other := "09:00"
		h, err := s.UpdateHabit(ctx, habitID, userID, service.UpdateHabitRequest{ReminderTime: &other, ClearReminder: true})
		assert.NoError(t, err)
		assert.Nil(t, h.ReminderTime)
	})
	t.Run("invalid reminder", func(t *testing.T) {
		s, _ := newHabitsService(t, nil)
		bad := "7am"
		_, err := s.UpdateHabit(ctx, habitID, userID, service.UpdateHabitRequest{ReminderTime: &bad})
		assert.ErrorIs(t, err, errorvalues.ErrInvalidReminderTime)
	})
	t.Run("wrong owner", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		title := "renamed"
		_, err := s.UpdateHabit(ctx, habitID, uuid.New(), service.UpdateHabitRequest{Title: &title})
		assert.ErrorIs(t, err, errorvalues.ErrWrongOwner)
	})
	t.Run("title taken", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errorvalues.ErrUserHasHabit)
		title := "taken"
		_, err := s.UpdateHabit(ctx, habitID, userID, service.UpdateHabitRequest{Title: &title})
		assert.ErrorIs(t, err, errorvalues.ErrUserHasHabit)
	})
	t.Run("drops cached habit", func(t *testing.T) {
		s, repo := newHabitsService(t, newBadgerCache(t))
		title := "renamed"
		updated := habitCopy()
		updated.Title = title

		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil).Times(2)
		repo.EXPECT().Update(gomock.Any(), updated).Return(nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(updated, nil).Times(2)

		h, err := s.GetHabit(ctx, habitID, userID)
		require.NoError(t, err)
		assert.Equal(t, testHabit.Title, h.Title)
		_, err = s.UpdateHabit(ctx, habitID, userID, service.UpdateHabitRequest{Title: &title})
		require.NoError(t, err)
		h, err = s.GetHabit(ctx, habitID, userID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", h.Title)
	})
}

func TestDeleteHabit(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		repo.EXPECT().Delete(gomock.Any(), habitID).Return(nil)
		assert.NoError(t, s.DeleteHabit(ctx, habitID, userID))
	})
	t.Run("wrong owner", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		assert.ErrorIs(t, s.DeleteHabit(ctx, habitID, uuid.New()), errorvalues.ErrWrongOwner)
	})
	t.Run("habit not found", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(nil, errorvalues.ErrHabitNotFound)
		assert.ErrorIs(t, s.DeleteHabit(ctx, habitID, userID), errorvalues.ErrHabitNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		s, repo := newHabitsService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), habitID).Return(habitCopy(), nil)
		repo.EXPECT().Delete(gomock.Any(), habitID).Return(errors.New("db error"))
		assert.Error(t, s.DeleteHabit(ctx, habitID, userID))
	})
}
