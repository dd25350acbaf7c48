package errorvalues

import "errors"

var (
	ErrHabitNotFound      = errors.New("habit doesn't exist")
	ErrCompletionNotFound = errors.New("completion doesn't exist")
	ErrWrongOwner         = errors.New("resource belongs to another user")

	ErrUserHasHabit     = errors.New("user already has habit with such title")
	ErrCompletionExists = errors.New("completion already exists for this date")

	ErrValidation               = errors.New("validation error")
	ErrInvalidDateRange         = errors.New("start date is after end date")
	ErrCompletionDateNotAllowed = errors.New("completion date is in the future")
	ErrInvalidReminderTime      = errors.New("reminder time must be HH:MM")

	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidToken   = errors.New("invalid token")
	ErrPassInProgress = errors.New("recomputation pass already running")
)
