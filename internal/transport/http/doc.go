// Package http serves the results of a station run over HTTP.
//
// Handlers are thin: they read from a ResultReader and render JSON with
// chi/render. Failures are rendered as RFC 7807 problem details by the
// errors package.
//
// Routes:
//
//	GET /healthz                                liveness and result count
//	GET /api/stations                           summary of every station
//	GET /api/stations/{station}                 full result of one station
//	GET /api/stations/{station}/coefficients    intercept and coefficients
//	GET /api/stations/{station}/metrics         fit metrics
//	GET /metrics                                Prometheus exposition
package http
