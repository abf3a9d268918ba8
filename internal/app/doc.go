// Package app wires the analyzer together: configuration, logging,
// telemetry, the station runner and the results API server.
//
// # Initialization Flow
//
//	1. Load configuration from .env, environment and the YAML file
//	2. Initialize logging and observability
//	3. Build the station step registry and runner
//	4. Run the configured stations
//	5. Optionally serve the results until interrupted
//
// # Usage
//
//	application, err := app.NewApplication(cfg, paths, providers, logger)
//	manifest, err := application.RunStations(ctx, cfg.Stations)
//	err = application.Serve(ctx)
package app
