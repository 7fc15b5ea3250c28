package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/config"
)

// NewApplication installs global observability providers, so the full
// wiring is constructed exactly once per test binary and all route
// assertions share it.
func TestNewApplicationServesCoreRoutes(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("ECOMPULSE_PATHS_DATA_DIR", filepath.Join(tmp, "data"))
	t.Setenv("ECOMPULSE_PATHS_OUTPUT_DIR", filepath.Join(tmp, "out"))
	t.Setenv("ECOMPULSE_PATHS_LOGS_DIR", filepath.Join(tmp, "logs"))
	t.Setenv("ECOMPULSE_LOGGING_LEVEL", "error")
	t.Setenv("ECOMPULSE_LOGGING_OUTPUT", "stdout")
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "data"), 0755))

	a, err := NewApplication()
	require.NoError(t, err)
	require.NotNil(t, a.Router)
	require.NotNil(t, a.Server)

	get := func(target string) (*httptest.ResponseRecorder, map[string]interface{}) {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, req)

		body := map[string]interface{}{}
		if rec.Body.Len() > 0 {
			json.Unmarshal(rec.Body.Bytes(), &body)
		}
		return rec, body
	}

	t.Run("healthz", func(t *testing.T) {
		rec, body := get("/healthz")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "1.2.0", body["version"])
	})

	t.Run("stages", func(t *testing.T) {
		rec, body := get("/api/stages")
		require.Equal(t, http.StatusOK, rec.Code)
		stages, ok := body["stages"].([]interface{})
		require.True(t, ok)
		assert.Len(t, stages, 6)
	})

	t.Run("runs empty", func(t *testing.T) {
		rec, body := get("/api/runs")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), body["count"])
	})

	t.Run("run not found", func(t *testing.T) {
		rec, body := get("/api/runs/nope")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "RUN_NOT_FOUND", body["error_code"])
	})

	t.Run("metrics exposed", func(t *testing.T) {
		rec, _ := get("/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("detailed health", func(t *testing.T) {
		rec, body := get("/api/health/detailed")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, "services")
	})

	t.Run("security headers applied", func(t *testing.T) {
		rec, _ := get("/healthz")
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("request id issued", func(t *testing.T) {
		rec, _ := get("/api/stages")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	require.NoError(t, a.Stop())
}

func TestEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	paths := config.PathsConfig{
		DataDir:   filepath.Join(tmp, "data"),
		OutputDir: filepath.Join(tmp, "out", "nested"),
		LogsDir:   filepath.Join(tmp, "logs"),
	}

	require.NoError(t, ensureDirectories(paths))
	for _, dir := range []string{paths.OutputDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
