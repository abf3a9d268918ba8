package domain

import (
	"fmt"
	"time"
)

// GameRecord is one scraped box score. Text fields hold the page text as
// scraped; they are only interpreted by the events normalizer.
type GameRecord struct {
	HomeTeam   string `json:"home_team" csv:"TeamB"`
	AwayTeam   string `json:"away_team" csv:"TeamA"`
	Date       string `json:"date" csv:"Date"`
	Time       string `json:"time" csv:"Time"`
	Attendance string `json:"attendance" csv:"Attendance"`
	Venue      string `json:"venue" csv:"Venue"`
	Duration   string `json:"duration" csv:"Duration"`
	Link       string `json:"link,omitempty" csv:"link"`
}

// ScoreboxHeaders is the column order of a raw scorebox CSV file.
var ScoreboxHeaders = []string{"TeamA", "TeamB", "Date", "Time", "Attendance", "Venue", "Duration", "link"}

// Row returns the record in ScoreboxHeaders order.
func (g GameRecord) Row() []string {
	return []string{g.AwayTeam, g.HomeTeam, g.Date, g.Time, g.Attendance, g.Venue, g.Duration, g.Link}
}

// TimeOfDay is a 24-hour wall clock start time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String formats the time as H:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%d:%02d", t.Hour, t.Minute)
}

// DayCategory groups days of the week for attendance attribution.
type DayCategory int

const (
	WeekdayNoFriday DayCategory = iota
	Friday
	Saturday
	Sunday
)

// String returns the category label used in reports.
func (c DayCategory) String() string {
	switch c {
	case WeekdayNoFriday:
		return "Weekday(nofriday)"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	default:
		return "unknown"
	}
}

// Day/night flags.
const (
	Day   = 0
	Night = 1
)

// Coefficient is one fitted feature weight.
type Coefficient struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"coefficient"`
}

// FitMetrics summarises fit quality for one station run.
type FitMetrics struct {
	MSE     float64 `json:"mse"`
	R2      float64 `json:"r2"`
	R2Event float64 `json:"r2_event"`
	CVScore float64 `json:"cv_score"`
	Rows    int     `json:"rows"`
}

// StationResult is the published outcome of one station run.
type StationResult struct {
	Station      string        `json:"station"`
	FitIntercept bool          `json:"fit_intercept"`
	Intercept    float64       `json:"intercept"`
	Coefficients []Coefficient `json:"coefficients"`
	Metrics      FitMetrics    `json:"metrics"`
	CompletedAt  time.Time     `json:"completed_at"`
}
