package logging

import (
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *rotatingFile
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance with default options.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(DefaultOptions(logDir))
}

// InitLoggerWithOptions initializes the global logger, closing any file held by a previous one
func InitLoggerWithOptions(opts Options) {
	Close()

	logger, file := newLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger: logger,
		file:   file,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the rotating log file, if any
func Close() {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return
	}
	if err := DefaultLoggingService.file.Close(); err != nil {
		slog.Warn("Failed to close log file", "error", err)
	}
	DefaultLoggingService.file = nil
}

// logger returns the global logger, or a console fallback at level when not initialized
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, or a console logger when not initialized
func Logger() *slog.Logger {
	return logger(slog.LevelInfo)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}
