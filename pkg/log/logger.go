package log

import (
	"context"
	"io"
	"log/slog"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// NewSlogLogger returns a Logger emitting JSON through log/slog in the Cloud
// Logging layout, with cockroachdb stack traces extracted by ErrFmtHandler.
func NewSlogLogger(w io.Writer, level Level) Logger {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	return &slogLogger{l: slog.New(WrapByErrFmtHandler(handler))}
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any) { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any) { s.l.Warn(msg, fields...) }

func (s *slogLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttr(err)}, fields[1:]...)
		}
	}
	s.l.Error(msg, fields...)
}

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}
