package eixgo

import (
	"log/slog"
)

// DefaultMaxStringLen caps declared string lengths while decoding.
// A cache that declares a longer string is treated as corrupt rather than
// honored, so a flipped length byte cannot trigger a giant allocation.
const DefaultMaxStringLen = 1 << 20

// CompressionMode controls how OpenRead treats compressed cache files.
type CompressionMode uint8

const (
	// CompressionAuto sniffs the file's leading bytes and transparently
	// decompresses gzip, zstd, lz4 and xz caches into memory.
	CompressionAuto CompressionMode = iota

	// CompressionNone reads the file as-is. Opening a compressed cache in
	// this mode fails with ErrBadMagic.
	CompressionNone
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	maxStringLen     int
	compression      CompressionMode
}

// Option configures Database open behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. compression-specific constructor variants).
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := eixgo.NewJSONLogger(slog.LevelInfo)
//	db, _ := eixgo.OpenRead(path, eixgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &eixgo.BasicMetricsCollector{}
//	db, _ := eixgo.OpenRead(path, eixgo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMaxStringLen overrides DefaultMaxStringLen. n <= 0 disables the cap
// entirely; only do that for files from a trusted producer.
func WithMaxStringLen(n int) Option {
	return func(o *options) {
		o.maxStringLen = n
	}
}

// WithCompression overrides the default CompressionAuto sniffing.
func WithCompression(mode CompressionMode) Option {
	return func(o *options) {
		o.compression = mode
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		maxStringLen:     DefaultMaxStringLen,
		compression:      CompressionAuto,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
