package events

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"ridership/internal/config"
)

// EventRow is one game's attendance split across the event columns.
type EventRow struct {
	Date   time.Time
	Values []float64
}

// EventTable is the per-date event attendance table of one venue.
type EventTable struct {
	Venue   string
	Columns []string
	Rows    []EventRow
}

// Project keeps the games played at venue (exact, case-sensitive match) with a
// parsed date and reduces them to date plus attendance columns. Rows are
// ordered by date; games sharing a date are kept as separate rows in input
// order.
func Project(ctx context.Context, games []NormalizedGame, venue, prefix string, logger *slog.Logger) *EventTable {
	if logger == nil {
		logger = slog.Default()
	}

	table := &EventTable{
		Venue:   venue,
		Columns: ColumnNames(prefix),
	}

	dropped := 0
	for _, g := range games {
		if !g.HasDate || g.Venue == nil || *g.Venue != venue {
			dropped++
			continue
		}
		values := make([]float64, numColumns)
		for i, v := range g.Columns {
			values[i] = float64(v)
		}
		table.Rows = append(table.Rows, EventRow{Date: g.Date, Values: values})
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Date.Before(table.Rows[j].Date)
	})

	logger.InfoContext(ctx, "projected venue events",
		slog.String("venue", venue),
		slog.Int("rows", len(table.Rows)),
		slog.Int("dropped", dropped))

	return table
}

// Headers returns the CSV header row.
func (t *EventTable) Headers() []string {
	return append([]string{"date"}, t.Columns...)
}

// Records returns the CSV body rows.
func (t *EventTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Values)+1)
		rec = append(rec, r.Date.Format(config.DateLayout))
		for _, v := range r.Values {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		out = append(out, rec)
	}
	return out
}

// Merge combines venue tables into a single event table keyed by date.
// Columns of different venues are disjoint; a date present in several tables
// gets one row per source row, with other venues' columns left at 0.
func Merge(tables ...*EventTable) *EventTable {
	merged := &EventTable{}
	offsets := make([]int, len(tables))
	for i, t := range tables {
		offsets[i] = len(merged.Columns)
		merged.Columns = append(merged.Columns, t.Columns...)
	}
	for i, t := range tables {
		for _, r := range t.Rows {
			values := make([]float64, len(merged.Columns))
			copy(values[offsets[i]:], r.Values)
			merged.Rows = append(merged.Rows, EventRow{Date: r.Date, Values: values})
		}
	}
	sort.SliceStable(merged.Rows, func(i, j int) bool {
		return merged.Rows[i].Date.Before(merged.Rows[j].Date)
	})
	return merged
}
