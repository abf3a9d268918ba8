package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"ridership/internal/config"
	"ridership/internal/infrastructure"
	"ridership/internal/operations"
	handlers "ridership/internal/transport/http"
)

// Application represents the analyzer container
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Providers *infrastructure.OTelProviders
	Store     *operations.ResultStore
	Registry  *operations.Registry
	Runner    *operations.Runner
	Router    chi.Router
	Server    *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// Option customizes NewApplication
type Option func(*options)

type options struct {
	publisher operations.CoefficientPublisher
}

// WithPublisher sends every finished station result to p
func WithPublisher(p operations.CoefficientPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// NewApplication creates the application with its dependencies. providers
// may be nil.
func NewApplication(cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders, logger *slog.Logger, opts ...Option) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Providers: providers,
		Store:     operations.NewResultStore(),
	}

	registry, err := operations.NewStationRegistry(cfg, paths, o.publisher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build station steps: %w", err)
	}
	a.Registry = registry
	a.Runner = operations.NewRunner(cfg, paths, registry, providers, a.Store, logger)

	router, err := handlers.NewRouter(handlers.RouterOptions{
		Results:   a.Store,
		Providers: providers,
		Logger:    logger,
		RateLimit: cfg.Server.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	a.Router = router
	a.Server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// RunStations processes stations and keeps their results for the API. The
// manifest is returned even when some stations failed.
func (a *Application) RunStations(ctx context.Context, stations []config.StationConfig) (*operations.Manifest, error) {
	if err := a.Paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return a.Runner.Run(ctx, stations)
}

// Start binds the listener and serves in the background.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
		close(a.serveErr)
	}()

	a.Logger.InfoContext(ctx, "Results API listening",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", ln.Addr().String()))
	return nil
}

// Addr returns the bound address once started
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the server. Telemetry providers belong to the
// caller and stay up so the final metrics can still be written.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down results API")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Serve starts the server and blocks until ctx is done or the server
// fails, then shuts down.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case err, ok := <-a.serveErr:
		if ok {
			serveErr = err
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
		}
	}

	if err := a.Stop(ctx); err != nil {
		return err
	}
	return serveErr
}
