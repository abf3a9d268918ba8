package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"service unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"not found", StationNotFoundError("addison"), http.StatusNotFound},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
		})
	}
}

func TestStationNotFoundError(t *testing.T) {
	err := StationNotFoundError("airport")
	assert.Equal(t, "STATION_NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "no results for station airport", err.Error())
	assert.Equal(t, map[string]string{"station": "airport"}, err.Details)
}

func TestProblemDetailsMarshal(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/stations/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeNotFound, got["type"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/stations/x", got["instance"])
	_, hasDetail := got["detail"]
	assert.False(t, hasDetail)
}
