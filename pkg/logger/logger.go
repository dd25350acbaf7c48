// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Environment "development" switches to the colored console handler
	Environment string
	Level       string
	// File enables a rotating log file next to stdout when not empty
	File string
}

// New returns a logger writing JSON records, or human readable ones in
// development. The returned closer releases the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer) {
	var (
		writer io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
		closer = fileWriter
	}
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Environment == "development" {
		charm := log.NewWithOptions(writer, log.Options{
			ReportTimestamp: true,
			ReportCaller:    level == slog.LevelDebug,
			Level:           log.Level(level),
			Prefix:          "streakd",
		})
		handler = charm
	} else {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
