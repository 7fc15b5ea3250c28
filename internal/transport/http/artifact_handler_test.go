package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/services"
)

func setupArtifactRouter(service RunServiceInterface) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewArtifactHandler(service, logger)

	r := chi.NewRouter()
	r.Get("/dashboard/{runID}", handler.ServeDashboard)
	r.Get("/reports/{runID}/*", handler.ServeReport)
	return r
}

func TestServeDashboard(t *testing.T) {
	dash := filepath.Join(t.TempDir(), "dashboard.html")
	require.NoError(t, os.WriteFile(dash, []byte("<html><body>run-1</body></html>"), 0644))

	service := &MockRunService{}
	service.On("ResolveArtifact", "run-1", "dashboard.html").Return(dash, nil)
	router := setupArtifactRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/run-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Body.String(), "run-1")
	service.AssertExpectations(t)
}

func TestServeReportNestedPath(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "revenue_trend.png")
	require.NoError(t, os.WriteFile(chart, []byte("png-bytes"), 0644))

	service := &MockRunService{}
	service.On("ResolveArtifact", "run-1", "charts/revenue_trend.png").Return(chart, nil)
	router := setupArtifactRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/run-1/charts/revenue_trend.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	service.AssertExpectations(t)
}

func TestServeReportDefaultsToFinalReport(t *testing.T) {
	report := filepath.Join(t.TempDir(), "final_report.html")
	require.NoError(t, os.WriteFile(report, []byte("<html></html>"), 0644))

	service := &MockRunService{}
	service.On("ResolveArtifact", "run-1", "final_report.html").Return(report, nil)
	router := setupArtifactRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/run-1/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestServeArtifactNotFound(t *testing.T) {
	service := &MockRunService{}
	service.On("ResolveArtifact", "run-1", "dashboard.html").
		Return("", fmt.Errorf("%w: dashboard.html", services.ErrArtifactNotFound))
	router := setupArtifactRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/run-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestServeArtifactRejectsTraversal(t *testing.T) {
	service := &MockRunService{}
	service.On("ResolveArtifact", "run-1", mock.Anything).
		Return("", fmt.Errorf("%w: ../../etc/passwd", services.ErrInvalidArtifactPath))
	router := setupArtifactRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/reports/run-1/%2e%2e/%2e%2e/etc/passwd", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"dashboard.html", "text/html; charset=utf-8"},
		{"quality_assessment.json", "application/json"},
		{"quality_summary.csv", "text/csv"},
		{"pattern_analysis.md", "text/markdown; charset=utf-8"},
		{"data_issues.log", "text/plain; charset=utf-8"},
		{"main.go", "text/plain; charset=utf-8"},
		{"charts/revenue.png", "image/png"},
		{"eda_workbook.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"mystery.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentTypeFor(tt.name))
		})
	}
}
