package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ridership/internal/config"
	"ridership/internal/dataset"
	apperrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
)

// Runner executes station jobs
type Runner struct {
	registry    *Registry
	paths       *config.Paths
	concurrency int
	failFast    bool
	tracer      *OperationTracer
	store       *ResultStore
	logger      *slog.Logger
	runConfig   map[string]interface{}
}

// NewRunner creates a Runner. providers and store may be nil.
func NewRunner(cfg *config.Config, paths *config.Paths, registry *Registry, providers *infrastructure.OTelProviders, store *ResultStore, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Run.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		registry:    registry,
		paths:       paths,
		concurrency: concurrency,
		failFast:    cfg.Run.FailFast,
		tracer:      NewOperationTracer(providers),
		store:       store,
		logger:      infrastructure.WithComponent(logger, "runner"),
		runConfig: map[string]interface{}{
			"folds":                 cfg.Regression.Folds,
			"scoring":               cfg.Regression.Scoring,
			"fit_intercept_grid":    cfg.Regression.FitInterceptGrid,
			"duplicate_event_dates": cfg.Dataset.DuplicateEventDates,
			"concurrency":           concurrency,
			"fail_fast":             cfg.Run.FailFast,
		},
	}
}

// FilesFor returns the input files of a station
func (r *Runner) FilesFor(station config.StationConfig) dataset.Files {
	return dataset.Files{
		Ridership:   r.paths.RidershipPath(station),
		Temperature: r.paths.TemperatureCSV,
		Events:      r.paths.EventCSV,
	}
}

// Run processes stations and writes the manifest. The returned error is an
// *ErrorList of the failed stations, or the manifest write error.
func (r *Runner) Run(ctx context.Context, stations []config.StationConfig) (*Manifest, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)
	manifest := NewManifest(runID, r.runConfig)

	ctx, span := r.tracer.TraceRun(ctx, runID, len(stations))
	defer span.End()

	start := time.Now()
	r.logger.InfoContext(ctx, "Run started",
		slog.Int("stations", len(stations)),
		slog.Int("concurrency", r.concurrency),
		slog.Bool("fail_fast", r.failFast))

	states := make([]*StationState, len(stations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, station := range stations {
		state := NewStationState(station, r.FilesFor(station))
		states[i] = state
		g.Go(func() error {
			err := r.runStation(gctx, state, manifest)
			if err != nil && r.failFast {
				return err
			}
			return nil
		})
	}
	// Station errors are collected from their states below.
	_ = g.Wait()

	manifest.Finish()

	failures := &ErrorList{}
	for _, state := range states {
		if state.Status == StationStatusCompleted {
			continue
		}
		err := state.Error
		if err == nil {
			err = NewCancellationError("", ctx.Err())
		}
		failures.Add(WrapError(err, state.Station.Name, ""))
	}

	r.logger.InfoContext(ctx, "Run finished",
		slog.String("status", manifest.Status),
		slog.Int("failed", len(failures.Errors)),
		slog.Duration("duration", time.Since(start)))

	if err := manifest.SaveToFile(r.paths.ManifestJSON); err != nil {
		return manifest, err
	}
	if failures.HasErrors() {
		return manifest, failures
	}
	return manifest, nil
}

// runStation executes every registered step on one station.
func (r *Runner) runStation(ctx context.Context, state *StationState, manifest *Manifest) error {
	name := state.Station.Name
	ctx = infrastructure.WithStation(ctx, name)
	ctx, span := r.tracer.TraceStation(ctx, name)
	defer span.End()

	state.Start()
	manifest.StartStation(name)
	r.recordInputs(ctx, state, manifest)

	err := r.runSteps(ctx, state, manifest)
	if err != nil {
		state.Fail(err)
		r.logger.ErrorContext(ctx, "Station failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("operation_error", string(GetErrorType(err))))
	} else {
		state.Complete()
		attrs := []any{slog.Duration("duration", state.Duration())}
		if state.Result != nil {
			if r.store != nil {
				r.store.Put(*state.Result)
			}
			attrs = append(attrs,
				slog.Float64("r2", state.Result.Metrics.R2),
				slog.Int("rows", state.Result.Metrics.Rows))
		}
		r.logger.InfoContext(ctx, "Station completed", attrs...)
	}

	manifest.FinishStation(state)
	r.tracer.RecordStationCompletion(ctx, span, state)
	return err
}

func (r *Runner) runSteps(ctx context.Context, state *StationState, manifest *Manifest) error {
	name := state.Station.Name
	steps := r.registry.List()
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			for _, rest := range steps[i:] {
				state.StepState(rest).Skip("run cancelled")
				manifest.RecordStepSkipped(name, rest.ID(), rest.Name())
			}
			return WrapError(NewCancellationError(step.ID(), err), name, step.ID())
		}

		stepState := state.StepState(step)
		stepState.Start()
		manifest.RecordStepStart(name, step.ID(), step.Name())

		stepCtx, span := r.tracer.TraceStep(ctx, name, step.ID())
		err := step.Execute(stepCtx, state)
		r.tracer.RecordStepCompletion(stepCtx, span, name, step.ID(), stepState.Duration(), err)
		span.End()

		if err != nil {
			opErr := WrapError(err, name, step.ID())
			stepState.Fail(opErr)
			manifest.RecordStepFailure(name, step.ID(), opErr)
			for _, rest := range steps[i+1:] {
				state.StepState(rest).Skip("previous step failed")
				manifest.RecordStepSkipped(name, rest.ID(), rest.Name())
			}
			return opErr
		}

		stepState.Complete()
		manifest.RecordStepCompletion(name, step.ID())
		r.logger.DebugContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))
	}
	return nil
}

// recordInputs digests the station inputs. Missing files are left to the
// assemble step to report.
func (r *Runner) recordInputs(ctx context.Context, state *StationState, manifest *Manifest) {
	for _, path := range []string{state.Files.Ridership, state.Files.Temperature, state.Files.Events} {
		if err := manifest.AddInput(path); err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeStorage {
				r.logger.DebugContext(ctx, "Input not digested", slog.String("path", path))
				continue
			}
			r.logger.WarnContext(ctx, "Failed to digest input",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}
