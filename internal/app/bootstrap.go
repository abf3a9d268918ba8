package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"ridership/internal/config"
	"ridership/internal/infrastructure"
)

// Environment is what every binary needs before doing its own work
type Environment struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Providers *infrastructure.OTelProviders
	Runtime   *infrastructure.RuntimeMetrics

	started time.Time
}

// Bootstrap loads configuration, resolves paths and starts logging and
// telemetry. logName is the log file used when file logging is enabled
// with a relative path.
func Bootstrap(configFile, logName string) (*Environment, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	if cfg.Logging.Output != "console" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.LogPath(logName)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	runtime, err := infrastructure.NewRuntimeMetrics(providers.Meter, started)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	return &Environment{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Providers: providers,
		Runtime:   runtime,
		started:   started,
	}, nil
}

// MonitorResources logs a runtime snapshot every interval until ctx is done.
func (e *Environment) MonitorResources(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := e.Runtime.Collect(ctx)
			e.Logger.InfoContext(ctx, "Resource usage", stats.LogAttrs()...)
		}
	}
}

// Close writes the metrics textfile when configured, flushes telemetry and
// closes the log file.
func (e *Environment) Close(ctx context.Context) {
	if path := e.Config.Telemetry.MetricsFile; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Paths.OutputDir, path)
		}
		if err := e.Providers.WriteMetricsFile(path); err != nil {
			e.Logger.WarnContext(ctx, "Failed to write metrics file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
	if err := e.Providers.Shutdown(ctx); err != nil {
		e.Logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	e.Logger.InfoContext(ctx, "Finished", slog.Duration("elapsed", time.Since(e.started)))
	_ = infrastructure.CloseLogFile()
}
