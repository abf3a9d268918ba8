package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"ridership/internal/dataset"
	"ridership/internal/features"
	"ridership/internal/regression"
)

// Workbook sheet names.
const (
	SheetPredictions  = "Predictions"
	SheetCoefficients = "Coefficients"
	SheetSummary      = "Summary"
	SheetCharts       = "Charts"
)

// dateNumFmt is the built-in m/d/yyyy number format.
const dateNumFmt = 14

// WriteWorkbook writes the analysis workbook of one station to path.
func WriteWorkbook(path, station string, m *features.Matrix, a *regression.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPredictions); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetCoefficients, SheetSummary, SheetCharts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headers, err := writePredictionSheet(f, m, a)
	if err != nil {
		return err
	}
	coefHeaders, coefRecords := CoefficientTable(a)
	if err := writeSheet(f, SheetCoefficients, coefHeaders, coefRecords); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSummary, []string{"Key", "Value"}, SummaryTable(station, a)); err != nil {
		return err
	}
	if err := addCharts(f, station, headers, m.Rows()); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Debug("Workbook written",
		slog.String("station", station),
		slog.String("path", path),
		slog.Int("rows", m.Rows()))
	return nil
}

// writePredictionSheet streams the prediction table with numeric cells and
// real date cells. It returns the header row.
func writePredictionSheet(f *excelize.File, m *features.Matrix, a *regression.Analysis) ([]string, error) {
	sw, err := f.NewStreamWriter(SheetPredictions)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: dateNumFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	t := m.Table
	headers := append(t.Headers(), ColPredictedEvent, ColPredicted, ColResidual)
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for r, d := range t.Dates {
		row := make([]interface{}, 0, len(headers))
		row = append(row, excelize.Cell{StyleID: dateStyle, Value: d})
		for c := range t.Columns {
			row = append(row, t.Values[c][r])
		}
		row = append(row, a.PredictedEvent[r], a.Predicted[r], a.Residuals[r])

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush predictions: %w", err)
	}
	return headers, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	rows := append([][]string{headers}, records...)
	for r, rec := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(rec))
		for i, v := range rec {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r, err)
		}
	}
	return nil
}

// addCharts places a residual scatter and an actual versus predicted line
// chart on the Charts sheet, both reading from the Predictions sheet.
func addCharts(f *excelize.File, station string, headers []string, rows int) error {
	ref := func(name string) (string, error) {
		idx := -1
		for i, h := range headers {
			if h == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", fmt.Errorf("prediction sheet has no %s column", name)
		}
		col, err := excelize.ColumnNumberToName(idx + 1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s!$%s$2:$%s$%d", SheetPredictions, col, col, rows+1), nil
	}

	dates, err := ref(dataset.ColDate)
	if err != nil {
		return err
	}
	actual, err := ref(dataset.ColRidership)
	if err != nil {
		return err
	}
	predictedEvent, err := ref(ColPredictedEvent)
	if err != nil {
		return err
	}
	predicted, err := ref(ColPredicted)
	if err != nil {
		return err
	}
	residual, err := ref(ColResidual)
	if err != nil {
		return err
	}

	dimension := excelize.ChartDimension{Width: 960, Height: 400}

	if err := f.AddChart(SheetCharts, "A1", &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{{
			Name:       "Residuals",
			Categories: predictedEvent,
			Values:     residual,
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 4},
		}},
		Title:     []excelize.RichTextRun{{Text: station + " residuals"}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: dimension,
	}); err != nil {
		return fmt.Errorf("failed to add residual chart: %w", err)
	}

	if err := f.AddChart(SheetCharts, "A22", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{Name: "Actual", Categories: dates, Values: actual},
			{Name: "Predicted with events", Categories: dates, Values: predictedEvent},
			{Name: "Predicted without events", Categories: dates, Values: predicted},
		},
		Title:     []excelize.RichTextRun{{Text: station + " ridership"}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: dimension,
	}); err != nil {
		return fmt.Errorf("failed to add ridership chart: %w", err)
	}
	return nil
}
