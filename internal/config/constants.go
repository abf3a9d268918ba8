package config

// Application constants
const (
	AppName    = "ridership-event-effect"
	AppVersion = "1.0.0"

	// DefaultColumnPrefix names the venue attendance columns.
	DefaultColumnPrefix = "sport_game_attendance"

	// DateLayout is the date format used in every CSV the tools write.
	DateLayout = "2006-01-02"
)
