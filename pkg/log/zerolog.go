package log

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// ZerologLogger is the production Logger backed by zerolog.
type ZerologLogger struct {
	zl    zerolog.Logger
	level Level
}

// NewZerologLogger creates a logger writing JSON lines to w. When console is
// true the output is rendered with zerolog.ConsoleWriter instead.
func NewZerologLogger(w io.Writer, level Level, console bool) *ZerologLogger {
	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}
	}
	zl := zerolog.New(out).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl, level: level}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Debug implements Logger.Debug.
func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

// Error implements Logger.Error. A leading error field is attached with its
// type and, for the module's structured errors, their zerolog fields.
func (l *ZerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = withError(ev, err)
			fields = fields[1:]
		}
	}
	l.emit(ev, msg, fields)
}

// With implements Logger.With.
func (l *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{
		zl:    l.zl.With().Fields(normalizeFields(fields)).Logger(),
		level: l.level,
	}
}

// Enabled implements Logger.Enabled.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= l.level
}

// InstallWarnings routes mlworkflow warnings (convergence, undefined
// metrics) to this logger at warn level.
func (l *ZerologLogger) InstallWarnings() {
	mlerrors.SetZerologWarnFunc(func(w error) {
		ev := l.zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	ev.Fields(normalizeFields(fields)).Msg(msg)
}

func withError(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Err(err).Str(ErrorTypeKey, fmt.Sprintf("%T", errors.UnwrapAll(err)))
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		ev = ev.Object("error.detail", m)
	}
	return ev
}

// normalizeFields turns key/value pairs into the slice form zerolog expects,
// converting non-string keys and rendering errors as strings.
func normalizeFields(fields []any) []any {
	out := make([]any, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		value := fields[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		out = append(out, key, value)
	}
	return out
}
