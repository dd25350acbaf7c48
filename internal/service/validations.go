package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	errorvalues "github.com/limbo/streakd/internal/error_values"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
	})
}

// validateStruct runs the validator and wraps failures into ErrValidation.
// A reminder time failure is reported as ErrInvalidReminderTime as well.
func validateStruct(s any) error {
	InitValidator()
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "hhmm" {
				return fmt.Errorf("%w: %w", errorvalues.ErrValidation, errorvalues.ErrInvalidReminderTime)
			}
		}
	}
	return fmt.Errorf("%w: %s", errorvalues.ErrValidation, err.Error())
}

// ParseReminderTime splits an "HH:MM" reminder time into hour and minute.
func ParseReminderTime(s string) (int, int, error) {
	m := hhmmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, errorvalues.ErrInvalidReminderTime
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return hour, minute, nil
}
