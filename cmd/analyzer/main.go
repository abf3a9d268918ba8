package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"
	"time"

	"ridership/internal/app"
	"ridership/internal/config"
	"ridership/internal/exporter"
	"ridership/internal/validation"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Analyzer panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	configFile := flag.String("config", "", "path to the YAML configuration file")
	stationList := flag.String("stations", "", "comma separated station names (default: all configured)")
	concurrency := flag.Int("concurrency", 0, "stations processed in parallel (overrides config)")
	failFast := flag.Bool("fail-fast", false, "cancel remaining stations after the first failure")
	serve := flag.Bool("serve", false, "keep serving the results API after the run")
	flag.Parse()

	env, err := app.Bootstrap(*configFile, "analyzer.log")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	logger = env.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, env, options{
		stations:    *stationList,
		concurrency: *concurrency,
		failFast:    *failFast,
		serve:       *serve,
	})
	env.Close(context.Background())
	os.Exit(code)
}

type options struct {
	stations    string
	concurrency int
	failFast    bool
	serve       bool
}

func run(ctx context.Context, env *app.Environment, opts options) int {
	cfg := env.Config
	logger := env.Logger

	if opts.concurrency > 0 {
		cfg.Run.Concurrency = opts.concurrency
	}
	if opts.failFast {
		cfg.Run.FailFast = true
	}

	stations, err := selectStations(cfg.Stations, opts.stations)
	if err != nil {
		logger.Error("Invalid station selection", slog.String("error", err.Error()))
		return 2
	}

	if err := validation.NewFileValidator(logger).ValidateRunInputs(env.Paths); err != nil {
		logger.Error("Run inputs are not usable", slog.String("error", err.Error()))
		return 1
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go env.MonitorResources(monitorCtx, 30*time.Second)

	var appOpts []app.Option
	if cfg.Sheets.Enabled {
		publisher, err := exporter.NewSheetsPublisher(ctx, cfg.Sheets, logger)
		if err != nil {
			logger.Error("Failed to create Sheets publisher", slog.String("error", err.Error()))
			return 1
		}
		appOpts = append(appOpts, app.WithPublisher(publisher))
	}

	application, err := app.NewApplication(cfg, env.Paths, env.Providers, logger, appOpts...)
	if err != nil {
		logger.Error("Failed to create application", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Analyzer starting",
		slog.String("version", config.AppVersion),
		slog.Int("stations", len(stations)),
		slog.String("output_dir", env.Paths.OutputDir))

	code := 0
	manifest, err := application.RunStations(ctx, stations)
	if err != nil {
		logger.Error("Run finished with failures", slog.String("error", err.Error()))
		code = 1
	}
	if manifest != nil {
		logger.Info("Run summary",
			slog.String("run_id", manifest.RunID),
			slog.String("status", manifest.Status),
			slog.Any("failed_stations", manifest.FailedStations()),
			slog.String("manifest", env.Paths.ManifestJSON))
	}

	if !opts.serve || ctx.Err() != nil {
		return code
	}
	if err := application.Serve(ctx); err != nil {
		logger.Error("Results API stopped", slog.String("error", err.Error()))
		return 1
	}
	return code
}

// selectStations filters the configured stations by a comma separated list,
// keeping configuration order. An empty list selects every station.
func selectStations(all []config.StationConfig, list string) ([]config.StationConfig, error) {
	if strings.TrimSpace(list) == "" {
		if len(all) == 0 {
			return nil, fmt.Errorf("no stations configured")
		}
		return all, nil
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = true
		}
	}

	var selected []config.StationConfig
	for _, s := range all {
		if wanted[s.Name] {
			selected = append(selected, s)
			delete(wanted, s.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown stations: %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}
