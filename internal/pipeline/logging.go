package pipeline

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger. Terminal output goes through tint;
// AUTOREEL_LOG_FORMAT=json switches to JSON for CI log collection. Debug
// level adds source locations.
func NewLogger(level LogLevel) *slog.Logger {
	slogLevel := level.Level()
	addSource := level == LogLevelDebug

	if os.Getenv("AUTOREEL_LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     slogLevel,
			AddSource: addSource,
		}))
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
		AddSource:  addSource,
	}))
}
