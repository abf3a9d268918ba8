package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridership/internal/config"
	"ridership/internal/infrastructure"
	"ridership/pkg/contracts/domain"
)

type memResults map[string]domain.StationResult

func (m memResults) Get(station string) (domain.StationResult, bool) {
	r, ok := m[station]
	return r, ok
}

func (m memResults) List() []domain.StationResult {
	out := make([]domain.StationResult, 0, len(m))
	for _, name := range []string{"addison", "airport"} {
		if r, ok := m[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

func testResults() memResults {
	done := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	return memResults{
		"addison": {
			Station:      "addison",
			FitIntercept: true,
			Intercept:    1834.5,
			Coefficients: []domain.Coefficient{
				{Feature: "temperature", Weight: 12.25},
				{Feature: "sport_game_attendance_sat", Weight: 0.021},
			},
			Metrics:     domain.FitMetrics{MSE: 1200, R2: 0.81, R2Event: 0.86, CVScore: -1500, Rows: 1826},
			CompletedAt: done,
		},
		"airport": {
			Station:     "airport",
			Metrics:     domain.FitMetrics{R2: 0.7, Rows: 1826},
			CompletedAt: done,
		},
	}
}

func newTestServer(t *testing.T, providers *infrastructure.OTelProviders) *httptest.Server {
	t.Helper()
	router, err := NewRouter(RouterOptions{
		Results:   testResults(),
		Providers: providers,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, nil)

	var body HealthResponse
	resp := getJSON(t, server.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, config.AppVersion, body.Version)
	assert.Equal(t, 2, body.Stations)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestListStations(t *testing.T) {
	server := newTestServer(t, nil)

	var body struct {
		Data  []StationSummary `json:"data"`
		Count int              `json:"count"`
	}
	resp := getJSON(t, server.URL+"/api/stations", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "addison", body.Data[0].Station)
	assert.Equal(t, 2, body.Data[0].Coefficients)
	assert.Equal(t, 0.86, body.Data[0].R2Event)
}

func TestStationCoefficients(t *testing.T) {
	server := newTestServer(t, nil)

	var body CoefficientsResponse
	resp := getJSON(t, server.URL+"/api/stations/addison/coefficients", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.FitIntercept)
	assert.Equal(t, 1834.5, body.Intercept)
	require.Len(t, body.Coefficients, 2)
	assert.Equal(t, "sport_game_attendance_sat", body.Coefficients[1].Feature)
}

func TestStationMetricsAndDetail(t *testing.T) {
	server := newTestServer(t, nil)

	var metrics MetricsResponse
	getJSON(t, server.URL+"/api/stations/addison/metrics", &metrics)
	assert.Equal(t, 1826, metrics.Metrics.Rows)
	assert.Equal(t, -1500.0, metrics.Metrics.CVScore)

	var detail domain.StationResult
	resp := getJSON(t, server.URL+"/api/stations/airport", &detail)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "airport", detail.Station)
}

func TestUnknownStation(t *testing.T) {
	server := newTestServer(t, nil)

	var problem map[string]interface{}
	resp := getJSON(t, server.URL+"/api/stations/grantpark/coefficients", &problem)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "STATION_NOT_FOUND", problem["error_code"])
	assert.Equal(t, resp.Header.Get("X-Request-ID"), problem["trace_id"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	server := newTestServer(t, nil)

	resp := getJSON(t, server.URL+"/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/healthz", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("without telemetry", func(t *testing.T) {
		server := newTestServer(t, nil)
		resp := getJSON(t, server.URL+"/metrics", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("with telemetry", func(t *testing.T) {
		providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		defer providers.Shutdown(context.Background())
		infrastructure.RecordFit(context.Background(), providers.Metrics, "addison", 0.81, 0.86, 1200)

		server := newTestServer(t, providers)
		getJSON(t, server.URL+"/api/stations", nil)

		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "ridership_fit_r2")
		assert.Contains(t, string(body), "ridership_http_requests")
	})
}

func TestRateLimitedRouter(t *testing.T) {
	router, err := NewRouter(RouterOptions{Results: testResults(), RateLimit: 0.001})
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
