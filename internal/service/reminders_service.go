package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/limbo/streakd/internal/metrics"
	"github.com/limbo/streakd/internal/notify"
	"github.com/limbo/streakd/internal/repository"
	"github.com/limbo/streakd/pkg/calendar"
)

// ReminderWindow is how far from the reminder time a sweep may still fire.
const ReminderWindow = time.Minute

type RemindersService struct {
	habitsRepo      repository.HabitsRepositoryI
	completionsRepo repository.CompletionsRepositoryI
	sink            notify.Sink
	loc             *time.Location
	logger          *slog.Logger
}

func NewRemindersService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI, sink notify.Sink, loc *time.Location, logger *slog.Logger) *RemindersService {
	if habitsRepo == nil || completionsRepo == nil || sink == nil {
		log.Fatal("on reminders service provided nil dependency")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemindersService{
		habitsRepo:      habitsRepo,
		completionsRepo: completionsRepo,
		sink:            sink,
		loc:             loc,
		logger:          logger,
	}
}

// SweepReminders notifies owners of habits whose reminder time is within
// ReminderWindow of now and which aren't completed today. Reminder times and
// "today" are read in the owner's time zone, or the service zone when the
// owner has none. It returns the number of notifications sent.
func (rs *RemindersService) SweepReminders(ctx context.Context, now time.Time) (int, error) {
	reminders, err := rs.habitsRepo.ListWithReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("habits repository error: %w", err)
	}
	zones := make(map[string]*time.Location)
	sent := 0
	for _, h := range reminders {
		if h.ReminderTime == nil {
			continue
		}
		hour, minute, err := ParseReminderTime(*h.ReminderTime)
		if err != nil {
			rs.logger.Warn("skipping invalid reminder time",
				slog.String("habit_id", h.ID.String()),
				slog.String("reminder_time", *h.ReminderTime),
			)
			continue
		}
		loc := rs.zone(zones, h.Timezone)
		local := now.In(loc)
		at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		diff := local.Sub(at)
		if diff < -ReminderWindow || diff > ReminderWindow {
			continue
		}
		done, err := rs.completionsRepo.Exists(ctx, h.UserID, h.ID, calendar.Day(local))
		if err != nil {
			rs.logger.Error("checking today's completion", slog.String("habit_id", h.ID.String()), slog.String("error", err.Error()))
			continue
		}
		if done {
			continue
		}
		rs.sink.Notify(ctx, h.UserID, h.ID, "Don't forget: "+h.Title)
		metrics.RemindersSent.Inc()
		sent++
	}
	return sent, nil
}

// zone loads a user's time zone once per sweep. Unknown names fall back to
// the service zone.
func (rs *RemindersService) zone(loaded map[string]*time.Location, name string) *time.Location {
	if name == "" {
		return rs.loc
	}
	if loc, ok := loaded[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		rs.logger.Warn("unknown user time zone, using default", slog.String("timezone", name))
		loc = rs.loc
	}
	loaded[name] = loc
	return loc
}
