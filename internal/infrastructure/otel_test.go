package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"ecompulse/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOTelInitialization covers the full stack once: the prometheus
// exporter registers on the default registry, so only this test creates it.
func TestOTelInitialization(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "ecompulse-test",
		ServiceVersion: "v0.0.0",
		Environment:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableTracing:  true,
		EnableMetrics:  true,
		SampleRatio:    1.0,
	}

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestDefaultOTelConfig(t *testing.T) {
	t.Setenv("ECOMPULSE_ENV", "")
	t.Setenv("ECOMPULSE_TRACE_EXPORTER", "")

	cfg := DefaultOTelConfig()

	assert.Equal(t, config.AppName, cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestTraceCorrelation(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "ecompulse-test",
		ServiceVersion: "v0.0.0",
		Environment:    "test",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		EnableTracing:  true,
		EnableMetrics:  false,
		SampleRatio:    1.0,
	}

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		config *OTelConfig
	}{
		{
			name: "disabled_tracing",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "none",
				MetricExporter: "none",
				EnableTracing:  false,
				EnableMetrics:  false,
				SampleRatio:    0.0,
			},
		},
		{
			name: "tracing_only",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
				TraceExporter:  "stdout",
				MetricExporter: "none",
				EnableTracing:  true,
				EnableMetrics:  false,
				SampleRatio:    1.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, testLogger())
			require.NoError(t, err)
			require.NotNil(t, providers)

			if tt.config.EnableTracing && tt.config.TraceExporter != "none" {
				assert.NotNil(t, providers.TracerProvider)
				assert.NotNil(t, providers.Tracer)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, providers.Shutdown(ctx))
		})
	}
}

func TestOTelRejectsUnknownExporters(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{
		TraceExporter:  "jaeger",
		MetricExporter: "none",
		EnableTracing:  true,
	}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{
		TraceExporter:  "none",
		MetricExporter: "statsd",
		EnableTracing:  false,
		EnableMetrics:  true,
	}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestHTTPMetrics(t *testing.T) {
	meter := otel.Meter("test-http-metrics")

	metrics, err := NewHTTPMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RequestStarted(ctx)
	metrics.RequestFinished(ctx, http.MethodGet, "/api/runs", http.StatusOK, 42*time.Millisecond)

	var disabled *HTTPMetrics
	disabled.RequestStarted(ctx)
	disabled.RequestFinished(ctx, http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func TestRecordErrorWithoutSpan(t *testing.T) {
	RecordError(context.Background(), assert.AnError)
}

func TestSystemMetricsCollect(t *testing.T) {
	meter := otel.Meter("test-system-metrics")

	collector, err := NewSystemMetricsCollector(meter, time.Minute)
	require.NoError(t, err)

	stats := collector.CurrentStats(context.Background())
	require.NotNil(t, stats)

	assert.Greater(t, stats.Goroutines, 0)
	assert.Greater(t, stats.MemoryAlloc, uint64(0))
	assert.Greater(t, stats.CPUCount, 0)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 0.0)
	assert.False(t, stats.Timestamp.IsZero())
}

func TestSystemMetricsCollectorRun(t *testing.T) {
	meter := otel.Meter("test-system-collector")

	collector, err := NewSystemMetricsCollector(meter, 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- collector.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}
}
