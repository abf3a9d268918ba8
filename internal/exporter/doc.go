// Package exporter writes station analysis results.
//
// CSVWriter writes the clean station tables, event tables, prediction tables
// and coefficient tables. WriteWorkbook produces the per-station Excel
// workbook with Predictions, Coefficients, Summary and Charts sheets; the
// charts plot residuals and actual versus predicted ridership over time.
// SheetsPublisher optionally pushes coefficient tables to a Google
// spreadsheet, one tab per station.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WritePredictions(station, matrix, analysis)
//
//	err = exporter.WriteWorkbook(paths.WorkbookPath(station), station, matrix, analysis)
package exporter
