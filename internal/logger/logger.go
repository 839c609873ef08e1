// Package logger provides a leveled, context-aware logger for the engine.
package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Level represents the minimum level of logs that will be written.
type Level slog.Level

// Log levels.
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// TraceIDFn returns a trace id from the context, if any.
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is the logging contract consumed by infra components.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

// Logger writes structured, leveled log records.
type Logger struct {
	handler slog.Handler
	traceID TraceIDFn
}

// Ensure Logger satisfies the interface.
var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON records to w at the given minimum level.
// The service name is attached to every record. traceIDFn may be nil.
func New(w io.Writer, minLevel Level, service string, traceIDFn TraceIDFn) *Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.Level(minLevel),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				return slog.Attr{}
			}
			return a
		},
	})

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", service),
	})

	return &Logger{
		handler: handler,
		traceID: traceIDFn,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) write(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	record.Add(args...)

	if l.traceID != nil {
		if id := l.traceID(ctx); id != "" {
			record.Add("trace_id", id)
		}
	}

	_ = l.handler.Handle(ctx, record)
}
