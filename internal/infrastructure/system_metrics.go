package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime health on the service meter.
type SystemMetrics struct {
	goRoutines    metric.Int64Gauge
	memoryAlloc   metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	gcCount       metric.Int64Gauge
	gcPause       metric.Float64Histogram
	processUptime metric.Float64Gauge
}

// NewSystemMetrics registers the runtime instruments on the given meter.
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	memoryAlloc, err := meter.Int64Gauge(
		"system_memory_alloc_bytes",
		metric.WithDescription("Heap memory allocated and still in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:    goRoutines,
		memoryAlloc:   memoryAlloc,
		memorySystem:  memorySystem,
		gcCount:       gcCount,
		gcPause:       gcPause,
		processUptime: processUptime,
	}, nil
}

// SystemStats is a point-in-time snapshot of runtime health, shaped for
// the health endpoint.
type SystemStats struct {
	Goroutines    int       `json:"goroutines"`
	MemoryAlloc   uint64    `json:"memory_alloc_bytes"`
	MemorySystem  uint64    `json:"memory_system_bytes"`
	GCCount       uint32    `json:"gc_count"`
	LastGCPause   string    `json:"last_gc_pause"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	CPUCount      int       `json:"cpu_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// Collect reads the runtime state, records it on the instruments and
// returns the snapshot.
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	lastPause := time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256])

	stats := &SystemStats{
		Goroutines:    runtime.NumGoroutine(),
		MemoryAlloc:   memStats.Alloc,
		MemorySystem:  memStats.Sys,
		GCCount:       memStats.NumGC,
		LastGCPause:   lastPause.String(),
		UptimeSeconds: time.Since(startTime).Seconds(),
		CPUCount:      runtime.NumCPU(),
		Timestamp:     time.Now().UTC(),
	}

	sm.goRoutines.Record(ctx, int64(stats.Goroutines))
	sm.memoryAlloc.Record(ctx, int64(stats.MemoryAlloc))
	sm.memorySystem.Record(ctx, int64(stats.MemorySystem))
	sm.gcCount.Record(ctx, int64(stats.GCCount))
	sm.processUptime.Record(ctx, stats.UptimeSeconds)

	if lastPause > 0 {
		sm.gcPause.Record(ctx, lastPause.Seconds())
	}

	return stats
}

// SystemMetricsCollector samples runtime metrics on a fixed interval.
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	startTime time.Time
	interval  time.Duration
}

// NewSystemMetricsCollector creates a collector sampling every interval.
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create system metrics: %w", err)
	}

	return &SystemMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
	}, nil
}

// Run samples until the context is cancelled. Intended to live in the
// server's errgroup.
func (smc *SystemMetricsCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	smc.metrics.Collect(ctx, smc.startTime)

	for {
		select {
		case <-ticker.C:
			smc.metrics.Collect(ctx, smc.startTime)
		case <-ctx.Done():
			return nil
		}
	}
}

// CurrentStats records and returns a fresh snapshot.
func (smc *SystemMetricsCollector) CurrentStats(ctx context.Context) *SystemStats {
	return smc.metrics.Collect(ctx, smc.startTime)
}
