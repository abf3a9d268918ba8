package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"ridership/internal/config"
)

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Stations int    `json:"stations"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	results ResultReader
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(results ResultReader) *HealthHandler {
	return &HealthHandler{results: results, started: time.Now()}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:   "ok",
		Version:  config.AppVersion,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Stations: len(h.results.List()),
	})
}
