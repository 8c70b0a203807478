// Package logging provides structured logging for svgs2fonts on top of
// log/slog. Commands construct one logger from the CLI flags and hand
// component-scoped children to the pipeline stages, so verbose runs show
// per-stage detail while the default output stays to a single line per build.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level represents the log levels understood by the CLI flags.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the flag spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a flag value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the logging interface passed through the build pipeline.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// Config holds logger construction options.
type Config struct {
	Level     Level
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig returns the configuration used when no flags are given:
// info-level text output on stderr, keeping stdout free for list output.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// FontLogger is the slog-backed Logger implementation.
type FontLogger struct {
	logger    *slog.Logger
	level     Level
	component string
	fields    map[string]interface{}
}

// New creates a structured logger from config; nil config means defaults.
func New(config *Config) *FontLogger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     slogLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &FontLogger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
		fields:    make(map[string]interface{}),
	}
}

// Discard returns a logger that drops everything. Used by tests and as the
// fallback when a stage receives a nil logger.
func Discard() *FontLogger {
	return New(&Config{Level: LevelError, Output: io.Discard})
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message.
func (l *FontLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

// Info logs an info message.
func (l *FontLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

// Warn logs a warning with an optional causing error.
func (l *FontLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

// Error logs an error message.
func (l *FontLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// With returns a child logger carrying additional key/value fields.
func (l *FontLogger) With(fields ...interface{}) Logger {
	child := &FontLogger{
		logger:    l.logger,
		level:     l.level,
		component: l.component,
		fields:    make(map[string]interface{}, len(l.fields)+len(fields)/2),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			child.fields[key] = fields[i+1]
		}
	}
	return child
}

// WithComponent returns a child logger tagged with a component name
// (scanner, svgfont, converter, pipeline, batch, preview).
func (l *FontLogger) WithComponent(component string) Logger {
	return &FontLogger{
		logger:    l.logger,
		level:     l.level,
		component: component,
		fields:    l.fields,
	}
}

func (l *FontLogger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...interface{}) {
	attrs := make([]slog.Attr, 0, len(l.fields)+len(fields)/2+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for k, v := range l.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			attrs = append(attrs, slog.Any(key, fields[i+1]))
		}
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	record.AddAttrs(attrs...)
	_ = l.logger.Handler().Handle(ctx, record)
}

// Timer tracks the duration of one named operation for --performance output.
type Timer struct {
	Logger
	start     time.Time
	operation string
}

// StartOperation begins timing a named operation.
func (l *FontLogger) StartOperation(operation string) *Timer {
	return &Timer{
		Logger:    l.With("operation", operation),
		start:     time.Now(),
		operation: operation,
	}
}

// End logs the operation's duration.
func (t *Timer) End(ctx context.Context) {
	d := time.Since(t.start)
	t.Info(ctx, "operation completed", "duration_ms", d.Milliseconds())
}

// EndWithError logs the operation's duration together with its failure.
func (t *Timer) EndWithError(ctx context.Context, err error) {
	d := time.Since(t.start)
	t.Error(ctx, err, "operation failed", "duration_ms", d.Milliseconds())
}
