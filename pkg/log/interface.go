// Package log provides a structured logging interface for mlworkflow pipelines.
//
// The interface is slog-compatible so the backend can be swapped: the
// production implementation is backed by zerolog (see ZerologLogger), an
// slog implementation is available through NewSlogLogger, and TestLogger
// captures records for assertions.
//
// Example usage:
//
//	logger := log.NewZerologLogger(os.Stderr, log.LevelInfo, false).With(
//	    log.PipelineKey, log.PipelineRegularization,
//	    log.RunIDKey, runID,
//	)
//	logger.Info("model fitted",
//	    log.ModelNameKey, "Lasso",
//	    log.SamplesKey, 160,
//	)
package log

import (
	"context"
	"fmt"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. For Error, an error value passed as
// the first field is treated as the cause of the record.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn",
// "error") into a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %q", level)
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }
func (nopLogger) Enabled(context.Context, Level) bool { return false }
