// Package logger wraps log/slog for the advisor service.
//
// Records are JSON with timestamp, level and message keys, carry the user id,
// request id and transition found on the context, and can be mirrored to
// Better Stack without blocking the caller.
package logger

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is a slog.Logger that remembers its level and owns the async sink
// it must flush on shutdown.
type Logger struct {
	*slog.Logger
	level slog.Level
	async *AsyncHandler
}

// Options configures optional log sinks.
type Options struct {
	BetterStackToken    string
	BetterStackEndpoint string
	Async               AsyncOptions
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New logs to stdout.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter logs to w only.
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions logs to w and, with a Better Stack token, also to Better
// Stack through an AsyncHandler.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	lvl := parseLevel(level)
	l := &Logger{level: lvl}

	handlers := []slog.Handler{
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, ReplaceAttr: replaceAttr}),
	}
	if opts.BetterStackToken != "" {
		remote := slogbetterstack.Option{
			Level:    lvl,
			Token:    opts.BetterStackToken,
			Endpoint: opts.BetterStackEndpoint,
		}.NewBetterstackHandler()
		l.async = NewAsyncHandler(remote, opts.Async)
		handlers = append(handlers, l.async)
	}

	var root slog.Handler = handlers[0]
	if len(handlers) > 1 {
		root = NewMultiHandler(handlers...)
	}
	l.Logger = slog.New(NewContextHandler(root))
	return l
}

// parseLevel maps a level name to slog, defaulting to info.
func parseLevel(name string) slog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		name := strings.ToLower(a.Value.String())
		if name == "warn" {
			name = "warning"
		}
		a.Value = slog.StringValue(name)
	}
	return a
}

// GetLevel returns the configured minimum level.
func (l *Logger) GetLevel() slog.Level {
	return l.level
}

func (l *Logger) with(args ...any) *Logger {
	clone := *l
	clone.Logger = l.With(args...)
	return &clone
}

// WithModule tags records with the emitting package.
func (l *Logger) WithModule(module string) *Logger {
	return l.with("module", module)
}

// WithError attaches err under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return l.with("error", err)
}

// WithField attaches one key/value pair.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.with(key, value)
}

// WithFields attaches fields in key order so output is stable.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, k, fields[k])
	}
	return l.with(args...)
}

// Shutdown flushes records queued for Better Stack.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.async == nil {
		return nil
	}
	return l.async.Shutdown(ctx)
}
