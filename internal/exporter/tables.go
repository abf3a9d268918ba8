package exporter

import (
	"ridership/internal/config"
	"ridership/internal/features"
	"ridership/internal/regression"
)

// Prediction table column names appended after the station table.
const (
	ColPredictedEvent = "predicted_event"
	ColPredicted      = "predicted"
	ColResidual       = "residual"
)

// PredictionTable renders the station table with both predictions and the
// residual appended, one row per date.
func PredictionTable(m *features.Matrix, a *regression.Analysis) ([]string, [][]string) {
	t := m.Table
	headers := append(t.Headers(), ColPredictedEvent, ColPredicted, ColResidual)

	records := make([][]string, t.Len())
	for r, d := range t.Dates {
		rec := make([]string, 0, len(headers))
		rec = append(rec, d.Format(config.DateLayout))
		for c := range t.Columns {
			rec = append(rec, formatFloat(t.Values[c][r]))
		}
		rec = append(rec,
			formatFloat(a.PredictedEvent[r]),
			formatFloat(a.Predicted[r]),
			formatFloat(a.Residuals[r]))
		records[r] = rec
	}
	return headers, records
}

// CoefficientTable renders one row per feature. The intercept is not part of
// the table.
func CoefficientTable(a *regression.Analysis) ([]string, [][]string) {
	records := make([][]string, len(a.Coefficients))
	for i, c := range a.Coefficients {
		records[i] = []string{c.Feature, formatFloat(c.Weight)}
	}
	return []string{"Feature", "Coefficient"}, records
}

// SummaryTable renders fit settings and metrics as key/value rows.
func SummaryTable(station string, a *regression.Analysis) [][]string {
	return [][]string{
		{"station", station},
		{"fit_intercept", formatBool(a.Model.FitIntercept)},
		{"intercept", formatFloat(a.Model.Intercept)},
		{"rank", formatFloat(float64(a.Model.Rank))},
		{"rows", formatFloat(float64(a.Metrics.Rows))},
		{"mse", formatFloat(a.Metrics.MSE)},
		{"r2", formatFloat(a.Metrics.R2)},
		{"r2_event", formatFloat(a.Metrics.R2Event)},
		{"cv_scoring", string(a.Search.Scoring)},
		{"cv_score", formatFloat(a.Metrics.CVScore)},
	}
}
