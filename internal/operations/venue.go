package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"ridership/internal/config"
	"ridership/internal/dataset"
	apperrors "ridership/internal/errors"
	"ridership/internal/events"
	"ridership/internal/exporter"
	"ridership/pkg/contracts/domain"
)

// SaveScorebox writes the raw box scores of one venue season.
func SaveScorebox(writer *exporter.CSVWriter, paths *config.Paths, slug string, season int, records []domain.GameRecord) (string, error) {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	path := paths.ScoreboxPath(slug, season)
	if err := writer.WriteSimpleCSV(path, domain.ScoreboxHeaders, rows); err != nil {
		return "", apperrors.NewStorageError("failed to write scorebox", err).WithContext("path", path)
	}
	return path, nil
}

// ScoreboxFiles lists the scorebox files of a venue: one per configured
// season, or every *_scorebox.csv in the venue directory when no seasons are
// configured. Missing season files are skipped.
func ScoreboxFiles(paths *config.Paths, venue config.VenueConfig) ([]string, error) {
	if len(venue.Seasons) == 0 {
		files, err := filepath.Glob(filepath.Join(paths.VenueDir(venue.Slug), "*_scorebox.csv"))
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		return files, nil
	}

	var files []string
	for _, season := range venue.Seasons {
		path := paths.ScoreboxPath(venue.Slug, season)
		if config.FileExists(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// NormalizeVenue normalizes every scorebox file of venue, writes the detailed
// game table and the projected event table, and returns the latter.
func NormalizeVenue(ctx context.Context, paths *config.Paths, writer *exporter.CSVWriter, venue config.VenueConfig, logger *slog.Logger) (*events.EventTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := ScoreboxFiles(paths, venue)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("scorebox files for venue %s", venue.Slug))
	}

	var records []domain.GameRecord
	for _, path := range files {
		recs, err := readScorebox(path)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	games, stats := events.Normalize(ctx, records, logger)
	logger.InfoContext(ctx, "Venue normalized",
		slog.String("venue", venue.Slug),
		slog.Int("files", len(files)),
		slog.Int("records", stats.Records),
		slog.Int("bad_dates", stats.BadDates),
		slog.Int("missing_attendance", stats.MissingAttendance))

	prefix := venue.ColumnPrefix
	if err := writer.WriteSimpleCSV(paths.VenueGamesPath(venue.Slug),
		events.GameTableHeaders(prefix), events.GameTableRecords(games)); err != nil {
		return nil, apperrors.NewStorageError("failed to write game table", err)
	}

	table := events.Project(ctx, games, venue.Name, prefix, logger)
	if err := writer.WriteTable(paths.VenueEventPath(venue.Slug), table); err != nil {
		return nil, apperrors.NewStorageError("failed to write venue event table", err)
	}
	return table, nil
}

// NormalizeVenues normalizes every venue and writes the merged event table
// read by the station runs.
func NormalizeVenues(ctx context.Context, paths *config.Paths, writer *exporter.CSVWriter, venues []config.VenueConfig, logger *slog.Logger) (*events.EventTable, error) {
	tables := make([]*events.EventTable, 0, len(venues))
	for _, venue := range venues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := NormalizeVenue(ctx, paths, writer, venue, logger)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", venue.Slug, err)
		}
		tables = append(tables, table)
	}

	merged := events.Merge(tables...)
	if err := writer.WriteTable(paths.EventCSV, merged); err != nil {
		return nil, apperrors.NewStorageError("failed to write event table", err)
	}
	return merged, nil
}

func readScorebox(path string) ([]domain.GameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	records, err := events.ReadScorebox(f)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", path), err)
	}
	return records, nil
}

// VenuesWithScorebox keeps the venues that have at least one scorebox file.
func VenuesWithScorebox(paths *config.Paths, venues []config.VenueConfig) []config.VenueConfig {
	var ready []config.VenueConfig
	for _, v := range venues {
		if files, err := ScoreboxFiles(paths, v); err == nil && len(files) > 0 {
			ready = append(ready, v)
		}
	}
	return ready
}

// EventCoverage describes how a merged event table serves one station.
type EventCoverage struct {
	Station  string
	GameDays int
	Err      error
}

// StationEventCoverage projects table onto every station's configured event
// columns. A station naming a column the table lacks gets a schema error;
// otherwise GameDays counts the dates with any non-zero attendance.
func StationEventCoverage(table *events.EventTable, stations []config.StationConfig) []EventCoverage {
	out := make([]EventCoverage, 0, len(stations))
	for _, station := range stations {
		cov := EventCoverage{Station: station.Name}
		projected, err := dataset.FromEventTable(table, station.EventColumns)
		if err != nil {
			cov.Err = err
			out = append(out, cov)
			continue
		}
		for r := 0; r < projected.Len(); r++ {
			for _, v := range projected.Row(r) {
				if v != 0 {
					cov.GameDays++
					break
				}
			}
		}
		out = append(out, cov)
	}
	return out
}

// ReportEventCoverage logs the coverage of every station and returns the
// stations whose event columns are missing from table.
func ReportEventCoverage(ctx context.Context, table *events.EventTable, stations []config.StationConfig, logger *slog.Logger) []string {
	var broken []string
	for _, cov := range StationEventCoverage(table, stations) {
		if cov.Err != nil {
			logger.WarnContext(ctx, "Station event columns missing from event table",
				slog.String("station", cov.Station),
				slog.String("error", cov.Err.Error()))
			broken = append(broken, cov.Station)
			continue
		}
		logger.InfoContext(ctx, "Station event coverage",
			slog.String("station", cov.Station),
			slog.Int("game_days", cov.GameDays))
	}
	return broken
}
