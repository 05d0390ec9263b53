package eixgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    headerCounter prometheus.Counter
//	    findHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordHeaderRead(duration time.Duration, err error) {
//	    p.headerCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordHeaderRead is called after each header read.
	// duration is the total time taken, err is nil if successful.
	RecordHeaderRead(duration time.Duration, err error)

	// RecordScan is called after a body scan finishes, successfully or
	// not. packages is the number of package records decoded.
	RecordScan(packages int, duration time.Duration, err error)

	// RecordFind is called after each search index lookup.
	// matches is the number of packages returned.
	RecordFind(matches int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordHeaderRead(time.Duration, error) {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordFind(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	HeaderReadCount      atomic.Int64
	HeaderReadErrors     atomic.Int64
	HeaderReadTotalNanos atomic.Int64
	ScanCount            atomic.Int64
	ScanErrors           atomic.Int64
	ScanPackages         atomic.Int64
	ScanTotalNanos       atomic.Int64
	FindCount            atomic.Int64
	FindErrors           atomic.Int64
	FindMatches          atomic.Int64
	FindTotalNanos       atomic.Int64
}

// RecordHeaderRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHeaderRead(duration time.Duration, err error) {
	b.HeaderReadCount.Add(1)
	b.HeaderReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.HeaderReadErrors.Add(1)
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(packages int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanPackages.Add(int64(packages))
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(matches int, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindMatches.Add(int64(matches))
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		HeaderReadCount:    b.HeaderReadCount.Load(),
		HeaderReadErrors:   b.HeaderReadErrors.Load(),
		HeaderReadAvgNanos: avgNanos(b.HeaderReadTotalNanos.Load(), b.HeaderReadCount.Load()),
		ScanCount:          b.ScanCount.Load(),
		ScanErrors:         b.ScanErrors.Load(),
		ScanPackages:       b.ScanPackages.Load(),
		ScanAvgNanos:       avgNanos(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		FindCount:          b.FindCount.Load(),
		FindErrors:         b.FindErrors.Load(),
		FindMatches:        b.FindMatches.Load(),
		FindAvgNanos:       avgNanos(b.FindTotalNanos.Load(), b.FindCount.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	HeaderReadCount    int64
	HeaderReadErrors   int64
	HeaderReadAvgNanos int64
	ScanCount          int64
	ScanErrors         int64
	ScanPackages       int64
	ScanAvgNanos       int64
	FindCount          int64
	FindErrors         int64
	FindMatches        int64
	FindAvgNanos       int64
}
