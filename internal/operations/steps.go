package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridership/internal/config"
	"ridership/internal/dataset"
	"ridership/internal/exporter"
	"ridership/internal/features"
	"ridership/internal/regression"
	"ridership/pkg/contracts/domain"
)

// Step IDs
const (
	StepIDAssemble = "assemble"
	StepIDFeatures = "features"
	StepIDRegress  = "regress"
	StepIDExport   = "export"
)

// CoefficientPublisher receives finished station results
type CoefficientPublisher interface {
	PublishCoefficients(ctx context.Context, result domain.StationResult) error
}

// AssembleStep joins the ridership, temperature and event inputs into the
// station table and writes it to the clean directory.
type AssembleStep struct {
	BaseStep
	policy dataset.DuplicatePolicy
	paths  *config.Paths
	writer *exporter.CSVWriter
}

// NewAssembleStep creates the assemble step
func NewAssembleStep(policy dataset.DuplicatePolicy, paths *config.Paths, writer *exporter.CSVWriter) *AssembleStep {
	return &AssembleStep{
		BaseStep: NewBaseStep(StepIDAssemble, "Assemble station table"),
		policy:   policy,
		paths:    paths,
		writer:   writer,
	}
}

// Execute implements Step
func (s *AssembleStep) Execute(ctx context.Context, state *StationState) error {
	table, err := dataset.AssembleFiles(state.Files, state.Station.EventColumns, s.policy)
	if err != nil {
		return err
	}
	table.Name = state.Station.Name
	state.Table = table

	path := s.paths.CleanStationPath(state.Station.Name)
	if err := s.writer.WriteTable(path, table); err != nil {
		return fmt.Errorf("failed to write station table: %w", err)
	}
	state.AddOutput(path)
	return nil
}

// FeaturesStep derives the design matrix from the station table
type FeaturesStep struct {
	BaseStep
}

// NewFeaturesStep creates the features step
func NewFeaturesStep() *FeaturesStep {
	return &FeaturesStep{BaseStep: NewBaseStep(StepIDFeatures, "Build features")}
}

// Execute implements Step
func (s *FeaturesStep) Execute(ctx context.Context, state *StationState) error {
	if state.Table == nil {
		return NewValidationError(s.ID(), "station table not assembled")
	}
	m, err := features.Build(state.Table)
	if err != nil {
		return err
	}
	state.Matrix = m
	return nil
}

// RegressStep runs the grid search, refit and counterfactual prediction
type RegressStep struct {
	BaseStep
	opts regression.Options
}

// NewRegressStep creates the regress step
func NewRegressStep(opts regression.Options) *RegressStep {
	return &RegressStep{
		BaseStep: NewBaseStep(StepIDRegress, "Fit regression"),
		opts:     opts,
	}
}

// Execute implements Step
func (s *RegressStep) Execute(ctx context.Context, state *StationState) error {
	if state.Matrix == nil {
		return NewValidationError(s.ID(), "features not built")
	}
	a, err := regression.Analyze(ctx, state.Matrix, state.Station.EventColumns, s.opts)
	if err != nil {
		return err
	}
	state.Analysis = a
	return nil
}

// ExportStep writes the prediction and coefficient tables and the workbook,
// and hands the result to the optional publisher.
type ExportStep struct {
	BaseStep
	paths     *config.Paths
	writer    *exporter.CSVWriter
	publisher CoefficientPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewExportStep creates the export step. publisher may be nil.
func NewExportStep(paths *config.Paths, writer *exporter.CSVWriter, publisher CoefficientPublisher, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		BaseStep:  NewBaseStep(StepIDExport, "Export results"),
		paths:     paths,
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute implements Step
func (s *ExportStep) Execute(ctx context.Context, state *StationState) error {
	if state.Analysis == nil {
		return NewValidationError(s.ID(), "regression not run")
	}
	station := state.Station.Name

	if err := s.writer.WritePredictions(station, state.Matrix, state.Analysis); err != nil {
		return err
	}
	state.AddOutput(s.paths.PredictionsPath(station))

	if err := s.writer.WriteCoefficients(station, state.Analysis); err != nil {
		return err
	}
	state.AddOutput(s.paths.CoefficientsPath(station))

	workbook := s.paths.WorkbookPath(station)
	if err := exporter.WriteWorkbook(workbook, station, state.Matrix, state.Analysis); err != nil {
		return err
	}
	state.AddOutput(workbook)

	result := state.Analysis.Result(station, s.now())
	state.Result = &result

	if s.publisher != nil {
		// Publishing is best effort; the local exports are the record.
		if err := s.publisher.PublishCoefficients(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish coefficients",
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// NewStationRegistry registers the four station steps in order.
func NewStationRegistry(cfg *config.Config, paths *config.Paths, publisher CoefficientPublisher, logger *slog.Logger) (*Registry, error) {
	policy, err := dataset.ParseDuplicatePolicy(cfg.Dataset.DuplicateEventDates)
	if err != nil {
		return nil, err
	}
	scoring, err := regression.ParseScoring(cfg.Regression.Scoring)
	if err != nil {
		return nil, err
	}
	opts := regression.Options{
		Folds:   cfg.Regression.Folds,
		Scoring: scoring,
		Grid:    cfg.Regression.FitInterceptGrid,
	}

	writer := exporter.NewCSVWriter(paths)
	registry := NewRegistry()
	for _, step := range []Step{
		NewAssembleStep(policy, paths, writer),
		NewFeaturesStep(),
		NewRegressStep(opts),
		NewExportStep(paths, writer, publisher, logger),
	} {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
