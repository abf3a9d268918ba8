package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ridership/internal/errors"
	"ridership/pkg/contracts/domain"
)

// StationSummary is one entry of GET /api/stations
type StationSummary struct {
	Station      string    `json:"station"`
	R2           float64   `json:"r2"`
	R2Event      float64   `json:"r2_event"`
	Rows         int       `json:"rows"`
	Coefficients int       `json:"coefficients"`
	CompletedAt  time.Time `json:"completed_at"`
}

// CoefficientsResponse is the body of GET /api/stations/{station}/coefficients
type CoefficientsResponse struct {
	Station      string               `json:"station"`
	FitIntercept bool                 `json:"fit_intercept"`
	Intercept    float64              `json:"intercept"`
	Coefficients []domain.Coefficient `json:"coefficients"`
}

// MetricsResponse is the body of GET /api/stations/{station}/metrics
type MetricsResponse struct {
	Station string            `json:"station"`
	Metrics domain.FitMetrics `json:"metrics"`
}

// ResultsHandler serves station results
type ResultsHandler struct {
	results ResultReader
	errors  *apierrors.ErrorHandler
	logger  *slog.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(results ResultReader, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{
		results: results,
		errors:  errorHandler,
		logger:  logger.With(slog.String("handler", "results")),
	}
}

// Routes sets up the station routes
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListStations)
	r.Route("/{station}", func(r chi.Router) {
		r.Get("/", h.GetStation)
		r.Get("/coefficients", h.GetCoefficients)
		r.Get("/metrics", h.GetMetrics)
	})
	return r
}

// ListStations handles GET /api/stations
func (h *ResultsHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	results := h.results.List()
	out := make([]StationSummary, 0, len(results))
	for _, res := range results {
		out = append(out, StationSummary{
			Station:      res.Station,
			R2:           res.Metrics.R2,
			R2Event:      res.Metrics.R2Event,
			Rows:         res.Metrics.Rows,
			Coefficients: len(res.Coefficients),
			CompletedAt:  res.CompletedAt,
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"data":  out,
		"count": len(out),
	})
}

// GetStation handles GET /api/stations/{station}
func (h *ResultsHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, res)
}

// GetCoefficients handles GET /api/stations/{station}/coefficients
func (h *ResultsHandler) GetCoefficients(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, CoefficientsResponse{
		Station:      res.Station,
		FitIntercept: res.FitIntercept,
		Intercept:    res.Intercept,
		Coefficients: res.Coefficients,
	})
}

// GetMetrics handles GET /api/stations/{station}/metrics
func (h *ResultsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, MetricsResponse{Station: res.Station, Metrics: res.Metrics})
}

func (h *ResultsHandler) lookup(w http.ResponseWriter, r *http.Request) (domain.StationResult, bool) {
	station := chi.URLParam(r, "station")
	res, ok := h.results.Get(station)
	if !ok {
		h.logger.DebugContext(r.Context(), "station has no result", slog.String("station", station))
		h.errors.HandleError(w, r, apierrors.StationNotFoundError(station))
		return domain.StationResult{}, false
	}
	return res, true
}
