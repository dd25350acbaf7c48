package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streakd/internal/cache"
	errorvalues "github.com/limbo/streakd/internal/error_values"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/pkg/calendar"
	"github.com/limbo/streakd/pkg/entity"
)

// Variables for tests
var (
	userID    = uuid.New()
	habitID   = uuid.New()
	createdAt = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	testHabit = entity.Habit{
		ID:          habitID,
		UserID:      userID,
		Title:       "test_habit",
		Description: "test_description",
		IsActive:    true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	// Friday
	testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
)

func habitCopy() *entity.Habit {
	h := testHabit
	return &h
}

func fixedClock() time.Time { return testNow }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysAgo(n int) time.Time {
	return calendar.Day(testNow).AddDate(0, 0, -n)
}

func newBadgerCache(t *testing.T) *cache.Cache {
	b, err := cache.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return cache.New(b, nil)
}

type hookRecorder struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (h *hookRecorder) OnCompletionMutated(_ context.Context, _, habitID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, habitID)
}

type sentNotification struct {
	uid     uuid.UUID
	habitID uuid.UUID
	message string
}

type sinkRecorder struct {
	sent []sentNotification
}

func (s *sinkRecorder) Notify(_ context.Context, uid, habitID uuid.UUID, message string) {
	s.sent = append(s.sent, sentNotification{uid: uid, habitID: habitID, message: message})
}

// memStore keeps habits, completions and streaks in memory with the same
// constraints the database enforces.
type memStore struct {
	mu          sync.Mutex
	now         func() time.Time
	habits      map[uuid.UUID]entity.Habit
	completions map[int64]entity.Completion
	streaks     map[[2]uuid.UUID]entity.Streak
	nextID      int64
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:         now,
		habits:      make(map[uuid.UUID]entity.Habit),
		completions: make(map[int64]entity.Completion),
		streaks:     make(map[[2]uuid.UUID]entity.Streak),
	}
}

type memHabits struct{ *memStore }
type memCompletions struct{ *memStore }
type memStreaks struct{ *memStore }

func (s *memStore) repos() (repository.HabitsRepositoryI, repository.CompletionsRepositoryI, repository.StreaksRepositoryI) {
	return memHabits{s}, memCompletions{s}, memStreaks{s}
}

func (r memHabits) Create(_ context.Context, habit *entity.Habit) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.habits {
		if h.UserID == habit.UserID && h.Title == habit.Title {
			return uuid.Nil, errorvalues.ErrUserHasHabit
		}
	}
	h := *habit
	h.ID = uuid.New()
	h.CreatedAt = r.now().UTC()
	h.UpdatedAt = h.CreatedAt
	r.habits[h.ID] = h
	return h.ID, nil
}

func (r memHabits) GetByID(_ context.Context, id uuid.UUID) (*entity.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.habits[id]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	return &h, nil
}

func (r memHabits) GetByUserID(_ context.Context, uid uuid.UUID, activeOnly bool) ([]*entity.Habit, error) {
	return r.filterHabits(func(h entity.Habit) bool {
		return h.UserID == uid && (h.IsActive || !activeOnly)
	}), nil
}

func (r memHabits) ListActive(_ context.Context) ([]*entity.Habit, error) {
	return r.filterHabits(func(h entity.Habit) bool { return h.IsActive }), nil
}

func (r memHabits) ListWithReminders(_ context.Context) ([]*entity.HabitReminder, error) {
	habits := r.filterHabits(func(h entity.Habit) bool { return h.IsActive && h.ReminderTime != nil })
	reminders := make([]*entity.HabitReminder, 0, len(habits))
	for _, h := range habits {
		reminders = append(reminders, &entity.HabitReminder{Habit: *h})
	}
	return reminders, nil
}

func (r memHabits) Update(_ context.Context, habit *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.habits[habit.ID]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	h := *habit
	h.UserID = old.UserID
	h.CreatedAt = old.CreatedAt
	h.UpdatedAt = r.now().UTC()
	r.habits[h.ID] = h
	return nil
}

func (r memHabits) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.habits[id]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	for cid, c := range r.completions {
		if c.HabitID == id {
			delete(r.completions, cid)
		}
	}
	delete(r.streaks, [2]uuid.UUID{h.UserID, id})
	delete(r.habits, id)
	return nil
}

func (s *memStore) filterHabits(keep func(entity.Habit) bool) []*entity.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []*entity.Habit{}
	for _, h := range s.habits {
		if keep(h) {
			h := h
			res = append(res, &h)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

func (r memCompletions) Create(_ context.Context, completion *entity.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.habits[completion.HabitID]; !ok {
		return errorvalues.ErrHabitNotFound
	}
	for _, c := range r.completions {
		if c.HabitID == completion.HabitID && c.Date.Equal(completion.Date) {
			return errorvalues.ErrCompletionExists
		}
	}
	r.nextID++
	completion.ID = r.nextID
	completion.CreatedAt = r.now().UTC()
	completion.UpdatedAt = completion.CreatedAt
	r.completions[completion.ID] = *completion
	return nil
}

func (r memCompletions) GetByID(_ context.Context, id int64, uid uuid.UUID) (*entity.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.completions[id]
	if !ok || c.UserID != uid {
		return nil, errorvalues.ErrCompletionNotFound
	}
	return &c, nil
}

func (r memCompletions) UpdateNotes(_ context.Context, id int64, uid uuid.UUID, notes *string) (*entity.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.completions[id]
	if !ok || c.UserID != uid {
		return nil, errorvalues.ErrCompletionNotFound
	}
	c.Notes = notes
	c.UpdatedAt = r.now().UTC()
	r.completions[id] = c
	return &c, nil
}

func (r memCompletions) Delete(_ context.Context, id int64, uid uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.completions[id]
	if !ok || c.UserID != uid {
		return uuid.Nil, errorvalues.ErrCompletionNotFound
	}
	delete(r.completions, id)
	return c.HabitID, nil
}

func (r memCompletions) Exists(_ context.Context, uid, habitID uuid.UUID, date time.Time) (bool, error) {
	list := r.filterCompletions(func(c entity.Completion) bool {
		return c.UserID == uid && c.HabitID == habitID && c.Date.Equal(calendar.Day(date))
	})
	return len(list) > 0, nil
}

func (r memCompletions) ListByHabit(_ context.Context, uid, habitID uuid.UUID, dr repository.DateRange) ([]*entity.Completion, error) {
	return r.filterCompletions(func(c entity.Completion) bool {
		return c.UserID == uid && c.HabitID == habitID && inRange(c.Date, dr)
	}), nil
}

func (r memCompletions) ListByUser(_ context.Context, uid uuid.UUID, dr repository.DateRange) ([]*entity.Completion, error) {
	return r.filterCompletions(func(c entity.Completion) bool {
		return c.UserID == uid && inRange(c.Date, dr)
	}), nil
}

func (r memCompletions) CountByUser(ctx context.Context, uid uuid.UUID, dr repository.DateRange) (int, error) {
	list, _ := r.ListByUser(ctx, uid, dr)
	return len(list), nil
}

func (r memCompletions) ListDatesByHabit(ctx context.Context, uid, habitID uuid.UUID) ([]time.Time, error) {
	list, _ := r.ListByHabit(ctx, uid, habitID, repository.DateRange{})
	dates := make([]time.Time, 0, len(list))
	for _, c := range list {
		dates = append(dates, c.Date)
	}
	return dates, nil
}

func (s *memStore) filterCompletions(keep func(entity.Completion) bool) []*entity.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []*entity.Completion{}
	for _, c := range s.completions {
		if keep(c) {
			c := c
			res = append(res, &c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return res
}

func inRange(d time.Time, dr repository.DateRange) bool {
	if dr.From != nil && d.Before(*dr.From) {
		return false
	}
	if dr.To != nil && d.After(*dr.To) {
		return false
	}
	return true
}

func (r memStreaks) Get(_ context.Context, uid, habitID uuid.UUID) (*entity.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streaks[[2]uuid.UUID{uid, habitID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r memStreaks) Upsert(_ context.Context, streak *entity.Streak) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.habits[streak.HabitID]; !ok {
		return 0, errorvalues.ErrHabitNotFound
	}
	key := [2]uuid.UUID{streak.UserID, streak.HabitID}
	s := *streak
	s.HabitTitle = ""
	if old, ok := r.streaks[key]; ok && old.LongestStreak > s.LongestStreak {
		s.LongestStreak = old.LongestStreak
	}
	r.streaks[key] = s
	return s.LongestStreak, nil
}

func (r memStreaks) ResetCurrent(_ context.Context, uid, habitID uuid.UUID, calculatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{uid, habitID}
	s, ok := r.streaks[key]
	if !ok {
		return false, nil
	}
	s.CurrentStreak = 0
	s.LastCompletionDate = nil
	s.StreakStartDate = nil
	s.LastCalculatedAt = calculatedAt
	r.streaks[key] = s
	return true, nil
}

func (r memStreaks) ListByUser(_ context.Context, uid uuid.UUID) ([]*entity.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type row struct {
		s       entity.Streak
		created time.Time
	}
	rows := []row{}
	for key, s := range r.streaks {
		if key[0] != uid {
			continue
		}
		h := r.habits[key[1]]
		s.HabitTitle = h.Title
		rows = append(rows, row{s: s, created: h.CreatedAt})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].created.After(rows[j].created) })
	res := make([]*entity.Streak, 0, len(rows))
	for i := range rows {
		res = append(res, &rows[i].s)
	}
	return res, nil
}
