package http

import (
	"net/http"

	apierrors "ridership/internal/errors"
)

// MetricsHandler exposes the Prometheus registry
type MetricsHandler struct {
	handler http.Handler
	errors  *apierrors.ErrorHandler
}

// NewMetricsHandler wraps a promhttp handler. A nil handler answers 503.
func NewMetricsHandler(handler http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{handler: handler, errors: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.handler == nil {
		h.errors.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	h.handler.ServeHTTP(w, r)
}
