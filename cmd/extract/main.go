package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"ridership/internal/app"
	"ridership/internal/config"
	"ridership/internal/exporter"
	"ridership/internal/warehouse"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	from := flag.String("from", "", "first service date (YYYY-MM-DD, overrides config)")
	to := flag.String("to", "", "last service date (YYYY-MM-DD, overrides config)")
	flag.Parse()

	env, err := app.Bootstrap(*configFile, "extract.log")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, env, *from, *to)
	env.Close(context.Background())
	os.Exit(code)
}

func run(ctx context.Context, env *app.Environment, from, to string) int {
	logger := env.Logger
	cfg := applyDateRange(env.Config.Warehouse, from, to)

	db, err := warehouse.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open warehouse", slog.String("error", err.Error()))
		return 1
	}
	defer db.Close()

	extractor := warehouse.New(db, cfg, env.Providers.Metrics, logger)
	counts, err := extractor.ExtractAll(ctx, env.Config.Stations, env.Paths, exporter.NewCSVWriter(env.Paths))
	for station, n := range counts {
		logger.Info("Station extracted",
			slog.String("station", station),
			slog.String("rows", humanize.Comma(int64(n))),
			slog.String("path", env.Paths.RidershipPath(stationByName(env.Config, station))))
	}
	if err != nil {
		logger.Error("Extraction failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// applyDateRange overrides the configured extraction window with non-empty
// command line values.
func applyDateRange(cfg config.WarehouseConfig, from, to string) config.WarehouseConfig {
	if from != "" {
		cfg.StartDate = from
	}
	if to != "" {
		cfg.EndDate = to
	}
	return cfg
}

func stationByName(cfg *config.Config, name string) config.StationConfig {
	if s, ok := cfg.Station(name); ok {
		return s
	}
	return config.StationConfig{Name: name}
}
