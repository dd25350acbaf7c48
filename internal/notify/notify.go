// Package notify delivers user-facing notifications.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Sink is fire-and-forget: implementations report nothing back to the caller
// and must not block for long.
type Sink interface {
	Notify(ctx context.Context, uid, habitID uuid.UUID, message string)
}

// LogSink writes notifications to the structured log. It stands in until a
// push or e-mail channel exists.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) Notify(ctx context.Context, uid, habitID uuid.UUID, message string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		slog.String("uid", uid.String()),
		slog.String("habit_id", habitID.String()),
		slog.String("message", message),
	)
}
