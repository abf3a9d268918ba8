package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ridership/internal/app"
	"ridership/internal/config"
	"ridership/internal/exporter"
	"ridership/internal/operations"
)

// normalize rebuilds the venue event tables from scorebox CSVs already on
// disk, typically after a hand correction, without scraping again.
func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	strict := flag.Bool("strict", false, "fail when a venue has no scorebox files or a station's event columns are missing")
	flag.Parse()

	env, err := app.Bootstrap(*configFile, "normalize.log")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, env, *strict)
	env.Close(context.Background())
	os.Exit(code)
}

func run(ctx context.Context, env *app.Environment, strict bool) int {
	logger := env.Logger

	venues := env.Config.Venues
	if !strict {
		venues = operations.VenuesWithScorebox(env.Paths, venues)
		if skipped := missing(env.Config.Venues, venues); len(skipped) > 0 {
			logger.Warn("Skipping venues without scorebox files", slog.Any("venues", skipped))
		}
	}
	if len(venues) == 0 {
		logger.Error("No venues to normalize")
		return 1
	}

	table, err := operations.NormalizeVenues(ctx, env.Paths, exporter.NewCSVWriter(env.Paths), venues, logger)
	if err != nil {
		logger.Error("Normalization failed", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("Event table written",
		slog.String("path", env.Paths.EventCSV),
		slog.Int("venues", len(venues)),
		slog.Int("rows", len(table.Rows)))

	if broken := operations.ReportEventCoverage(ctx, table, env.Config.Stations, logger); len(broken) > 0 && strict {
		logger.Error("Event table does not cover every station", slog.Any("stations", broken))
		return 1
	}
	return 0
}

// missing returns the slugs of all that are not in kept.
func missing(all, kept []config.VenueConfig) []string {
	in := make(map[string]bool, len(kept))
	for _, v := range kept {
		in[v.Slug] = true
	}
	var out []string
	for _, v := range all {
		if !in[v.Slug] {
			out = append(out, v.Slug)
		}
	}
	return out
}
