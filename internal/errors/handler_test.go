package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) (*ErrorHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewErrorHandler(logger, includeStack), &buf
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"api error", StationNotFoundError("addison"), http.StatusNotFound, TypeNotFound},
		{"cancelled", fmt.Errorf("query: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"app not found", NewNotFoundError("manifest"), http.StatusNotFound, TypeNotFound},
		{"schema", NewSchemaError("event", []string{"cubs_sat"}), http.StatusBadRequest, TypeValidation},
		{"storage", NewStorageError("read", errors.New("disk")), http.StatusServiceUnavailable, TypeServiceDown},
		{"plain", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, logs := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/stations/addison", nil)

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			got := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, "/api/stations/addison", got["instance"])
			assert.NotContains(t, got, "stack")
			assert.Contains(t, logs.String(), "request failed")
		})
	}
}

func TestErrorHandler_HandleNilError(t *testing.T) {
	h, _ := newTestHandler(false)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Zero(t, w.Body.Len())
}

func TestErrorHandler_APIErrorExtensions(t *testing.T) {
	h, _ := newTestHandler(true)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/x", nil), StationNotFoundError("airport"))

	got := decodeProblem(t, w)
	assert.Equal(t, "STATION_NOT_FOUND", got["error_code"])
	assert.Equal(t, map[string]interface{}{"station": "airport"}, got["details"])
	assert.Contains(t, got, "stack")
}

func TestErrorHandler_Recoverer(t *testing.T) {
	h, logs := newTestHandler(false)
	handler := h.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, w)["type"])
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	h, _ := newTestHandler(false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "DELETE")
}
