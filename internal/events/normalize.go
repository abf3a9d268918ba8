package events

import (
	"context"
	"log/slog"
	"time"

	"ridership/internal/config"
	"ridership/pkg/contracts/domain"
)

// Attendance column indexes, in event table order.
const (
	ColFriday = iota
	ColSaturday
	ColSunday
	ColDayWeekday
	ColNightWeekday
	numColumns
)

// ColumnNames returns the five attendance column names for prefix.
func ColumnNames(prefix string) []string {
	if prefix == "" {
		prefix = config.DefaultColumnPrefix
	}
	return []string{
		prefix + "_fri",
		prefix + "_sat",
		prefix + "_sun",
		prefix + "_day_weekday(nofri)",
		prefix + "_night_weekday(nofri)",
	}
}

// NormalizedGame is a GameRecord with its fields parsed and its attendance
// attributed to exactly one column.
type NormalizedGame struct {
	Record     domain.GameRecord
	Date       time.Time
	HasDate    bool
	Start      *domain.TimeOfDay
	Attendance *int
	Venue      *string
	Duration   *string
	Category   domain.DayCategory
	DayOfWeek  int
	DayNight   int
	Columns    [numColumns]int
}

// NormalizeStats counts fields that failed to parse.
type NormalizeStats struct {
	Records           int
	BadDates          int
	BadTimes          int
	MissingAttendance int
	MissingVenue      int
}

// Normalize parses every record. It never fails; unparseable fields are left
// nil and counted in the returned stats.
func Normalize(ctx context.Context, records []domain.GameRecord, logger *slog.Logger) ([]NormalizedGame, NormalizeStats) {
	if logger == nil {
		logger = slog.Default()
	}

	games := make([]NormalizedGame, 0, len(records))
	stats := NormalizeStats{Records: len(records)}

	for i, rec := range records {
		g := NormalizeRecord(rec)
		if !g.HasDate {
			stats.BadDates++
			logger.DebugContext(ctx, "unparseable game date",
				slog.Int("row", i), slog.String("date", rec.Date))
		}
		if g.Start == nil {
			stats.BadTimes++
		}
		if g.Attendance == nil {
			stats.MissingAttendance++
		}
		if g.Venue == nil {
			stats.MissingVenue++
		}
		games = append(games, g)
	}

	logger.InfoContext(ctx, "normalized game records",
		slog.Int("records", stats.Records),
		slog.Int("bad_dates", stats.BadDates),
		slog.Int("bad_times", stats.BadTimes),
		slog.Int("missing_attendance", stats.MissingAttendance),
		slog.Int("missing_venue", stats.MissingVenue))

	return games, stats
}

// NormalizeRecord parses a single record.
func NormalizeRecord(rec domain.GameRecord) NormalizedGame {
	g := NormalizedGame{
		Record:     rec,
		Start:      ParseStartTime(rec.Time),
		Attendance: ParseAttendance(rec.Attendance),
		Venue:      ParseVenue(rec.Venue),
		Duration:   ParseDuration(rec.Duration),
	}

	g.Date, g.HasDate = ParseDate(rec.Date)
	if !g.HasDate {
		return g
	}

	g.DayOfWeek = Weekday(g.Date)
	g.Category = ClassifyDay(g.Date)
	g.DayNight = ClassifyDayNight(g.Start, g.Category)

	if g.Attendance != nil {
		g.Columns[columnFor(g.Category, g.DayNight)] = *g.Attendance
	}
	return g
}

func columnFor(category domain.DayCategory, dayNight int) int {
	switch category {
	case domain.Friday:
		return ColFriday
	case domain.Saturday:
		return ColSaturday
	case domain.Sunday:
		return ColSunday
	}
	if dayNight == domain.Night {
		return ColNightWeekday
	}
	return ColDayWeekday
}

// DayOfWeekDayNight returns the seven day_of_week_<i>_day_night interaction
// values of the game: the day/night flag placed at the game's weekday.
func (g NormalizedGame) DayOfWeekDayNight() [7]int {
	var out [7]int
	if g.HasDate {
		out[g.DayOfWeek] = g.DayNight
	}
	return out
}
