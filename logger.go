package eixgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with eixgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds the cache file path to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithSegment adds a segment index field to the logger.
func (l *Logger) WithSegment(segment int) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", segment),
	}
}

// WithOverlay adds an overlay path field to the logger.
func (l *Logger) WithOverlay(overlay string) *Logger {
	return &Logger{
		Logger: l.Logger.With("overlay", overlay),
	}
}

// LogOpen logs the outcome of opening a cache file.
func (l *Logger) LogOpen(ctx context.Context, path string, compression string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cache opened",
			"path", path,
			"compression", compression,
		)
	}
}

// LogHeaderRead logs a header read operation.
func (l *Logger) LogHeaderRead(ctx context.Context, segment int, overlay string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "header read failed",
			"segment", segment,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "header read",
			"segment", segment,
			"overlay", overlay,
		)
	}
}

// LogScan logs a completed body scan.
func (l *Logger) LogScan(ctx context.Context, segment int, stats ScanStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scan failed",
			"segment", segment,
			"categories", stats.Categories,
			"packages", stats.Packages,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "scan completed",
			"segment", segment,
			"categories", stats.Categories,
			"packages", stats.Packages,
			"versions", stats.Versions,
			"bytes", stats.Bytes,
		)
	}
}

// LogFind logs a search index lookup.
func (l *Logger) LogFind(ctx context.Context, category, name string, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "find failed",
			"category", category,
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "find completed",
			"category", category,
			"name", name,
			"matches", matches,
		)
	}
}
