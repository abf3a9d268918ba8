package regression

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	apperrors "ridership/internal/errors"
	"ridership/internal/features"
	"ridership/pkg/contracts/domain"
)

// Options configures Analyze.
type Options struct {
	Folds   int
	Scoring Scoring
	Grid    []bool
}

// DefaultOptions matches a five-fold search over both intercept settings.
func DefaultOptions() Options {
	return Options{Folds: 5, Scoring: ScoringNegMSE, Grid: []bool{true, false}}
}

// Analysis is the outcome of one station fit.
type Analysis struct {
	Model        *Model
	Search       *SearchResult
	Features     []string
	EventColumns []string

	// Predicted is the counterfactual prediction with event columns zeroed.
	Predicted []float64
	// PredictedEvent is the prediction on the training view.
	PredictedEvent []float64
	// Residuals is target minus PredictedEvent.
	Residuals []float64

	Coefficients []domain.Coefficient
	Metrics      domain.FitMetrics
}

// Counterfactual returns a copy of x with the given columns set to zero.
func Counterfactual(x mat.Matrix, columns []int) *mat.Dense {
	out := mat.DenseCopyOf(x)
	r, _ := out.Dims()
	for _, j := range columns {
		for i := 0; i < r; i++ {
			out.Set(i, j, 0)
		}
	}
	return out
}

// Analyze grid-searches the intercept setting on m, refits the best setting on
// every row and predicts both the training and the counterfactual view.
func Analyze(ctx context.Context, m *features.Matrix, eventColumns []string, opts Options) (*Analysis, error) {
	if opts.Folds == 0 {
		opts.Folds = 5
	}
	if opts.Scoring == "" {
		opts.Scoring = ScoringNegMSE
	}
	if len(opts.Grid) == 0 {
		opts.Grid = []bool{true, false}
	}

	eventIdx, missing := m.FeatureIndex(eventColumns)
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError("features", missing)
	}

	search, err := GridSearch(ctx, m.X, m.Target, opts.Grid, opts.Folds, opts.Scoring)
	if err != nil {
		return nil, err
	}

	model, err := Fit(m.X, m.Target, search.Best.FitIntercept)
	if err != nil {
		return nil, err
	}

	predEvent := model.Predict(m.X)
	pred := model.Predict(Counterfactual(m.X, eventIdx))

	coefs := make([]domain.Coefficient, len(m.Features))
	for i, f := range m.Features {
		coefs[i] = domain.Coefficient{Feature: f, Weight: model.Coef[i]}
	}

	return &Analysis{
		Model:          model,
		Search:         search,
		Features:       append([]string(nil), m.Features...),
		EventColumns:   append([]string(nil), eventColumns...),
		Predicted:      pred,
		PredictedEvent: predEvent,
		Residuals:      Residuals(m.Target, predEvent),
		Coefficients:   coefs,
		Metrics: domain.FitMetrics{
			MSE:     MSE(m.Target, pred),
			R2:      R2(m.Target, pred),
			R2Event: R2(m.Target, predEvent),
			CVScore: search.Best.MeanScore,
			Rows:    m.Rows(),
		},
	}, nil
}

// Result packages the analysis for publication.
func (a *Analysis) Result(station string, completedAt time.Time) domain.StationResult {
	return domain.StationResult{
		Station:      station,
		FitIntercept: a.Model.FitIntercept,
		Intercept:    a.Model.Intercept,
		Coefficients: append([]domain.Coefficient(nil), a.Coefficients...),
		Metrics:      a.Metrics,
		CompletedAt:  completedAt,
	}
}
