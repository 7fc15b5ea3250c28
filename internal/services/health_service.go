package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"ecompulse/internal/config"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/operations"
	ws "ecompulse/internal/websocket"
)

// HealthService reports process health, version, and runtime statistics.
// Dependencies may be nil; the corresponding checks degrade gracefully so
// the service stays usable in tests and partial wirings.
type HealthService struct {
	version   string
	paths     config.PathsConfig
	manager   *operations.Manager
	hub       *ws.Hub
	collector *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    float64                `json:"uptime_seconds"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth describes one dependency inside a detailed health response.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service.
func NewHealthService(version string, paths config.PathsConfig, manager *operations.Manager, hub *ws.Hub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		manager:   manager,
		hub:       hub,
		collector: collector,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns liveness status.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
	}
}

// DetailedHealth returns health status plus per-dependency checks and
// runtime statistics.
func (hs *HealthService) DetailedHealth(ctx context.Context) HealthStatus {
	status := hs.HealthCheck(ctx)
	status.Services = map[string]interface{}{
		"pipeline":  hs.checkPipeline(),
		"websocket": hs.checkWebSocket(),
		"data":      hs.checkData(),
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "degraded"
			break
		}
	}

	if hs.collector != nil {
		stats := hs.collector.CurrentStats(ctx)
		status.Runtime = map[string]interface{}{
			"goroutines":    stats.Goroutines,
			"memory_alloc":  stats.MemoryAlloc,
			"memory_system": stats.MemorySystem,
			"gc_count":      stats.GCCount,
			"cpu_count":     stats.CPUCount,
		}
	}

	return status
}

// Version returns version and build environment information.
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
		"uptime":     time.Since(hs.startTime).Seconds(),
	}
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.manager == nil {
		return ServiceHealth{Status: "not_ready", Message: "pipeline manager not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d runs tracked", len(hs.manager.ListRuns())),
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "progress hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}

func (hs *HealthService) checkData() ServiceHealth {
	info, err := os.Stat(hs.paths.DataDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("data directory not found: %s", hs.paths.DataDir),
		}
	}
	return ServiceHealth{Status: "ready"}
}
