// Package warehouse extracts daily station ridership from the fare
// warehouse into the raw extract CSV read by the station runs.
//
// The query joins entry counts to the service calendar, entrances, stations
// and branches, sums rides per station and service date, and is restricted
// to the configured station ids and date range:
//
//	db, err := warehouse.Open(ctx, cfg.Warehouse)
//	ex := warehouse.New(db, cfg.Warehouse, providers.Metrics, logger)
//	n, err := ex.ExtractStation(ctx, station, writer, paths.RidershipPath(station))
//
// Postgres (lib/pq) and SQLite (modernc.org/sqlite) are supported.
package warehouse
