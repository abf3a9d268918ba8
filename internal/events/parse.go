package events

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"ridership/pkg/contracts/domain"
)

// longDateLayout is the box score header format, e.g. "Monday, April 3, 2023".
const longDateLayout = "Monday, January 2, 2006"

// fallbackDateLayouts are tried in order when the long form does not match.
var fallbackDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

var (
	clockPattern      = regexp.MustCompile(`(\d+):(\d+)`)
	pmPattern         = regexp.MustCompile(`(?i)(?:^|[\s\d])p\.?m(?:\.|\b)`)
	attendancePattern = regexp.MustCompile(`Attendance:\s*(\d{1,3}(?:,\d{3})+|\d+)`)
	venuePattern      = regexp.MustCompile(`Venue:\s*(.+)`)
	durationPattern   = regexp.MustCompile(`Game Duration:\s*(\d+:\d+)`)
)

// ParseDate parses a box score date. The long weekday form is tried first,
// then the fallback layouts. ok is false only when every layout fails.
func ParseDate(text string) (date time.Time, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(longDateLayout, text); err == nil {
		return d, true
	}
	for _, layout := range fallbackDateLayouts {
		if d, err := time.Parse(layout, text); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseStartTime extracts the first H:MM clock value and converts a p.m.
// marker to 24-hour form. 12 p.m. stays 12.
func ParseStartTime(text string) *domain.TimeOfDay {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	if pmPattern.MatchString(text) && hour < 12 {
		hour += 12
	}
	return &domain.TimeOfDay{Hour: hour, Minute: minute}
}

// ParseAttendance extracts the integer after "Attendance:".
func ParseAttendance(text string) *int {
	m := attendancePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

// ParseVenue extracts the remainder of a "Venue:" line.
func ParseVenue(text string) *string {
	m := venuePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}

// ParseDuration extracts the H:MM value after "Game Duration:".
func ParseDuration(text string) *string {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}

// Weekday returns the Monday=0 day index of date.
func Weekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// ClassifyDay maps a date to its attendance category.
func ClassifyDay(date time.Time) domain.DayCategory {
	switch Weekday(date) {
	case 4:
		return domain.Friday
	case 5:
		return domain.Saturday
	case 6:
		return domain.Sunday
	default:
		return domain.WeekdayNoFriday
	}
}

// ClassifyDayNight returns domain.Night for a start at or after 17:00 on a
// Monday-Thursday date and domain.Day otherwise. An unknown start is day.
func ClassifyDayNight(start *domain.TimeOfDay, category domain.DayCategory) int {
	if start == nil || category != domain.WeekdayNoFriday {
		return domain.Day
	}
	if start.Hour >= 17 {
		return domain.Night
	}
	return domain.Day
}
