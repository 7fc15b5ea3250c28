package services

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"ecompulse/internal/config"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/operations"
	ws "ecompulse/internal/websocket"
)

func TestHealthCheckReportsOK(t *testing.T) {
	hs := NewHealthService("1.2.0", config.PathsConfig{}, nil, nil, nil, quietLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.0", status.Version)
	assert.GreaterOrEqual(t, status.Uptime, 0.0)
	assert.False(t, status.Timestamp.IsZero())
	assert.Nil(t, status.Services)
}

func TestDetailedHealthDegradedWithoutDependencies(t *testing.T) {
	paths := config.PathsConfig{DataDir: "/does/not/exist"}
	hs := NewHealthService("1.2.0", paths, nil, nil, nil, quietLogger())

	status := hs.DetailedHealth(context.Background())
	assert.Equal(t, "degraded", status.Status)

	pipeline, ok := status.Services["pipeline"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", pipeline.Status)

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", data.Status)
	assert.Contains(t, data.Message, paths.DataDir)
}

func TestDetailedHealthReadyWithDependencies(t *testing.T) {
	paths := config.PathsConfig{
		DataDir:   t.TempDir(),
		OutputDir: t.TempDir(),
	}
	manager := operations.NewManager(config.AnalysisConfig{}, paths.OutputDir, nil, quietLogger())

	hub := ws.NewHub(config.WebSocketConfig{}, quietLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	collector, err := infrastructure.NewSystemMetricsCollector(otel.Meter("health-test"), time.Minute)
	require.NoError(t, err)

	hs := NewHealthService("1.2.0", paths, manager, hub, collector, quietLogger())

	status := hs.DetailedHealth(context.Background())
	assert.Equal(t, "ok", status.Status)
	require.Len(t, status.Services, 3)
	for name, service := range status.Services {
		sh, ok := service.(ServiceHealth)
		require.True(t, ok, "service %s", name)
		assert.Equal(t, "ready", sh.Status, "service %s", name)
	}

	require.NotNil(t, status.Runtime)
	goroutines, ok := status.Runtime["goroutines"].(int)
	require.True(t, ok)
	assert.Greater(t, goroutines, 0)
}

func TestVersionReportsBuildInfo(t *testing.T) {
	hs := NewHealthService("1.2.0", config.PathsConfig{}, nil, nil, nil, quietLogger())

	info := hs.Version()
	assert.Equal(t, "1.2.0", info["version"])
	assert.Equal(t, runtime.Version(), info["go_version"])
	assert.Equal(t, runtime.GOOS, info["os"])
	assert.Equal(t, runtime.GOARCH, info["arch"])
	assert.NotEmpty(t, info["start_time"])
}
