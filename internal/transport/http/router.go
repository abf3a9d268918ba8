package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
	customMiddleware "ridership/internal/middleware"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Results   ResultReader
	Providers *infrastructure.OTelProviders
	Logger    *slog.Logger
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64
}

// NewRouter builds the results API
func NewRouter(opts RouterOptions) (chi.Router, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(chimw.RealIP)
	if opts.Providers != nil {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(opts.Providers)
		if err != nil {
			return nil, err
		}
		r.Use(otelMiddleware.Handler)
	}
	r.Use(customMiddleware.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)
	if opts.RateLimit > 0 {
		r.Use(customMiddleware.NewRateLimiter(opts.RateLimit, int(opts.RateLimit)+1, logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := NewHealthHandler(opts.Results)
	r.Get("/healthz", health.Health)

	var promHandler http.Handler
	if opts.Providers != nil {
		promHandler = opts.Providers.PrometheusHTTP
	}
	r.Method(http.MethodGet, "/metrics", NewMetricsHandler(promHandler, errorHandler))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/stations", NewResultsHandler(opts.Results, errorHandler, logger).Routes())
	})
	return r, nil
}
