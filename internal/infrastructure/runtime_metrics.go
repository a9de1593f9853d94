package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics samples Go runtime figures into gauges.
type RuntimeMetrics struct {
	goroutines    metric.Int64Gauge
	heapAlloc     metric.Int64Gauge
	heapSys       metric.Int64Gauge
	gcPause       metric.Float64Histogram
	processUptime metric.Float64Gauge
	lastNumGC     uint32
}

// RuntimeStats holds one runtime sample.
type RuntimeStats struct {
	Goroutines  int64         `json:"goroutines"`
	HeapAlloc   int64         `json:"heap_alloc_bytes"`
	HeapSys     int64         `json:"heap_sys_bytes"`
	GCCount     uint32        `json:"gc_count"`
	LastGCPause time.Duration `json:"last_gc_pause"`
	Uptime      time.Duration `json:"uptime"`
}

// NewRuntimeMetrics registers the runtime instruments on meter.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutines gauge: %w", err)
	}
	heapAlloc, err := meter.Int64Gauge("system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap alloc gauge: %w", err)
	}
	heapSys, err := meter.Int64Gauge("system_heap_sys_bytes",
		metric.WithDescription("Bytes of heap memory obtained from the OS"), metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap sys gauge: %w", err)
	}
	gcPause, err := meter.Float64Histogram("system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gc pause histogram: %w", err)
	}
	uptime, err := meter.Float64Gauge("process_uptime_seconds",
		metric.WithDescription("Seconds since the process started"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	return &RuntimeMetrics{
		goroutines:    goroutines,
		heapAlloc:     heapAlloc,
		heapSys:       heapSys,
		gcPause:       gcPause,
		processUptime: uptime,
	}, nil
}

// Collect samples the runtime and records it. Not safe for concurrent use.
func (m *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:  int64(runtime.NumGoroutine()),
		HeapAlloc:   int64(mem.HeapAlloc),
		HeapSys:     int64(mem.HeapSys),
		GCCount:     mem.NumGC,
		LastGCPause: time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		Uptime:      time.Since(startTime),
	}

	m.goroutines.Record(ctx, stats.Goroutines)
	m.heapAlloc.Record(ctx, stats.HeapAlloc)
	m.heapSys.Record(ctx, stats.HeapSys)
	m.processUptime.Record(ctx, stats.Uptime.Seconds())
	if stats.GCCount != m.lastNumGC && stats.LastGCPause > 0 {
		m.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}
	m.lastNumGC = stats.GCCount

	return stats
}

// RuntimeCollector samples runtime metrics on an interval.
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration
}

// NewRuntimeCollector creates a collector sampling every interval.
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RuntimeCollector{metrics: metrics, startTime: time.Now(), interval: interval}, nil
}

// Run collects until ctx is cancelled.
func (c *RuntimeCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.metrics.Collect(ctx, c.startTime)
	for {
		select {
		case <-ticker.C:
			c.metrics.Collect(ctx, c.startTime)
		case <-ctx.Done():
			return
		}
	}
}
