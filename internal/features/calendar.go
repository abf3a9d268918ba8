package features

import "time"

// Calendar holds the date-derived fields of one row.
type Calendar struct {
	Year      int
	Month     int
	Week      int
	DayOfWeek int
	DayOfYear int
}

// CalendarOf derives the calendar fields of d. Week is the ISO week number.
func CalendarOf(d time.Time) Calendar {
	_, week := d.ISOWeek()
	return Calendar{
		Year:      d.Year(),
		Month:     int(d.Month()),
		Week:      week,
		DayOfWeek: (int(d.Weekday()) + 6) % 7,
		DayOfYear: d.YearDay(),
	}
}
