package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	t.Run("implements error", func(t *testing.T) {
		err := New(http.StatusNotFound, "RUN_NOT_FOUND", "Analysis run not found")
		assert.Equal(t, "Analysis run not found", err.Error())
		assert.Equal(t, http.StatusNotFound, err.StatusCode)
		assert.Equal(t, "RUN_NOT_FOUND", err.ErrorCode)
	})

	t.Run("with details", func(t *testing.T) {
		err := NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value", "stages")
		assert.Equal(t, "stages", err.Details)
	})

	t.Run("render sets status", func(t *testing.T) {
		err := ErrRunActive
		r := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
		w := httptest.NewRecorder()

		require.NoError(t, err.Render(w, r))
	})
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		statusCode int
		errorCode  string
	}{
		{"run not found", ErrRunNotFound, http.StatusNotFound, "RUN_NOT_FOUND"},
		{"artifact not found", ErrArtifactNotFound, http.StatusNotFound, "ARTIFACT_NOT_FOUND"},
		{"dataset not found", ErrDatasetNotFound, http.StatusNotFound, "DATASET_NOT_FOUND"},
		{"run active", ErrRunActive, http.StatusConflict, "RUN_ACTIVE"},
		{"run failed", ErrRunFailed, http.StatusInternalServerError, "RUN_FAILED"},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.Equal(t, tt.errorCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, RunNotFoundError("run-42"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "RUN_NOT_FOUND", resp.Error.ErrorCode)
	assert.Equal(t, "run-42", resp.Error.Details)
}

func TestAppError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		cause := fmt.Errorf("open file: permission denied")
		err := NewStorageError("failed to write artifact", cause)

		assert.Contains(t, err.Error(), "STORAGE")
		assert.Contains(t, err.Error(), "permission denied")
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewAppValidationError("weights must sum to 1.0")
		assert.Equal(t, "[VALIDATION] weights must sum to 1.0", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("with context", func(t *testing.T) {
		err := NewAnalysisError("correlation failed", nil).
			WithContext("dataset", "Orders.csv").
			WithContext("column", "price")

		assert.Equal(t, "Orders.csv", err.Context["dataset"])
		assert.Equal(t, "price", err.Context["column"])
	})

	t.Run("type constructors", func(t *testing.T) {
		assert.Equal(t, ErrTypeParsing, NewParsingError("x", nil).Type)
		assert.Equal(t, ErrTypeNotFound, NewNotFoundError("dataset").Type)
		assert.Equal(t, ErrTypeRendering, NewRenderingError("x", nil).Type)
		assert.Equal(t, ErrTypeConfig, NewConfigError("x", nil).Type)
	})
}

func TestValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "data_dir", Message: "required"},
		{Field: "stages", Message: "unknown stage"},
	})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}
