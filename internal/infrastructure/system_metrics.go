package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of process resource usage
type RuntimeStats struct {
	GoRoutines    int64
	HeapInUse     uint64
	TotalAlloc    uint64
	GCCount       uint32
	ProcessUptime time.Duration
	Timestamp     time.Time
}

// RuntimeMetrics records runtime snapshots as gauges
type RuntimeMetrics struct {
	goRoutines    metric.Int64Gauge
	heapInUse     metric.Int64Gauge
	processUptime metric.Float64Gauge
	startTime     time.Time
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter, startTime time.Time) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"ridership.runtime.goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapInUse, err := meter.Int64Gauge(
		"ridership.runtime.heap",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"ridership.runtime.uptime",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goRoutines:    goRoutines,
		heapInUse:     heapInUse,
		processUptime: processUptime,
		startTime:     startTime,
	}, nil
}

// Collect takes a snapshot and records it
func (rm *RuntimeMetrics) Collect(ctx context.Context) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapInUse:     memStats.HeapInuse,
		TotalAlloc:    memStats.TotalAlloc,
		GCCount:       memStats.NumGC,
		ProcessUptime: time.Since(rm.startTime),
		Timestamp:     time.Now(),
	}

	rm.goRoutines.Record(ctx, stats.GoRoutines)
	rm.heapInUse.Record(ctx, int64(stats.HeapInUse))
	rm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())
	return stats
}

// LogAttrs renders the snapshot for a log line
func (stats *RuntimeStats) LogAttrs() []any {
	return []any{
		slog.Int64("goroutines", stats.GoRoutines),
		slog.String("heap_in_use", humanize.Bytes(stats.HeapInUse)),
		slog.String("total_alloc", humanize.Bytes(stats.TotalAlloc)),
		slog.Uint64("gc_count", uint64(stats.GCCount)),
		slog.Duration("uptime", stats.ProcessUptime),
	}
}
