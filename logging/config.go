// Package logging wires slog to the console and a weekly rotating file.
package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
)

// Options configures the process logger
type Options struct {
	Dir            string     // Log directory; empty logs to the console only
	RetentionWeeks int        // Weeks of files kept on disk
	MaxFileSize    int64      // Size that moves writes to a numbered file within a week
	Level          slog.Level // Minimum level for both console and file
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions(dir string) Options {
	return Options{
		Dir:            dir,
		RetentionWeeks: 4,
		MaxFileSize:    100 * 1024 * 1024,
		Level:          slog.LevelInfo,
	}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func consoleHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

// newLogger builds a logger writing text to stdout and, when
// opts.Dir is usable, JSON lines to a rotating file. The returned file is nil
// for console-only logging; the caller closes it.
func newLogger(opts Options) (*slog.Logger, *rotatingFile) {
	if opts.Dir == "" {
		return slog.New(consoleHandler(opts.Level)), nil
	}

	file, err := openRotatingFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		logger := slog.New(consoleHandler(opts.Level))
		logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
		return logger, nil
	}

	handler := fanout{
		consoleHandler(opts.Level),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level}),
	}
	return slog.New(handler), file
}

// fanout sends each record to every handler that accepts its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
