package events

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ridership/internal/config"
	"ridership/pkg/contracts/domain"
)

// ReadScorebox loads a raw scorebox CSV (ScoreboxHeaders columns). Every
// column is read as text; missing optional columns are left empty. A leading
// UTF-8 BOM, as written by spreadsheet tools after a manual fix, is dropped.
func ReadScorebox(r io.Reader) ([]domain.GameRecord, error) {
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read scorebox csv: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	if !present["Date"] {
		return nil, fmt.Errorf("scorebox csv has no Date column")
	}

	column := func(name string) []string {
		if !present[name] {
			return make([]string, df.Nrow())
		}
		return df.Col(name).Records()
	}

	awayTeams := column("TeamA")
	homeTeams := column("TeamB")
	dates := column("Date")
	times := column("Time")
	attendance := column("Attendance")
	venues := column("Venue")
	durations := column("Duration")
	links := column("link")

	records := make([]domain.GameRecord, df.Nrow())
	for i := range records {
		records[i] = domain.GameRecord{
			AwayTeam:   awayTeams[i],
			HomeTeam:   homeTeams[i],
			Date:       dates[i],
			Time:       times[i],
			Attendance: attendance[i],
			Venue:      venues[i],
			Duration:   durations[i],
			Link:       links[i],
		}
	}
	return records, nil
}

// GameTableHeaders is the header row of the detailed normalized game table.
func GameTableHeaders(prefix string) []string {
	headers := []string{"date", "home_team", "away_team", "start_time", "attendance",
		"venue", "duration", "day_category", "day_night"}
	for i := 0; i < 7; i++ {
		headers = append(headers, fmt.Sprintf("day_of_week_%d_day_night", i))
	}
	return append(headers, ColumnNames(prefix)...)
}

// GameTableRecords renders normalized games in GameTableHeaders order.
func GameTableRecords(games []NormalizedGame) [][]string {
	out := make([][]string, 0, len(games))
	for _, g := range games {
		rec := []string{
			"", g.Record.HomeTeam, g.Record.AwayTeam, "", "", "", "", "", fmt.Sprint(g.DayNight),
		}
		if g.HasDate {
			rec[0] = g.Date.Format(config.DateLayout)
			rec[7] = g.Category.String()
		}
		if g.Start != nil {
			rec[3] = g.Start.String()
		}
		if g.Attendance != nil {
			rec[4] = fmt.Sprint(*g.Attendance)
		}
		if g.Venue != nil {
			rec[5] = *g.Venue
		}
		if g.Duration != nil {
			rec[6] = *g.Duration
		}
		for _, v := range g.DayOfWeekDayNight() {
			rec = append(rec, fmt.Sprint(v))
		}
		for _, v := range g.Columns {
			rec = append(rec, fmt.Sprint(v))
		}
		out = append(out, rec)
	}
	return out
}
