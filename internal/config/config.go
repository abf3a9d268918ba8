package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "RIDERSHIP"

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Regression RegressionConfig `yaml:"regression" envconfig:"REGRESSION"`
	Scraper    ScraperConfig    `yaml:"scraper" envconfig:"SCRAPER"`
	Warehouse  WarehouseConfig  `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Sheets     SheetsConfig     `yaml:"sheets" envconfig:"SHEETS"`
	Run        RunConfig        `yaml:"run" envconfig:"RUN"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`

	// Stations and Venues only come from the YAML file.
	Stations []StationConfig `yaml:"stations" ignored:"true" validate:"dive"`
	Venues   []VenueConfig   `yaml:"venues" ignored:"true" validate:"dive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system locations. Relative paths are resolved
// against BaseDir, never against the process working directory.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// RegressionConfig controls the hyperparameter search.
type RegressionConfig struct {
	Folds            int    `yaml:"folds" envconfig:"FOLDS" validate:"min=2"`
	Scoring          string `yaml:"scoring" envconfig:"SCORING" validate:"oneof=neg_mse r2"`
	FitInterceptGrid []bool `yaml:"fit_intercept_grid" envconfig:"FIT_INTERCEPT_GRID" validate:"min=1"`
}

// ScraperConfig controls box score scraping.
type ScraperConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	SchedulePath      string        `yaml:"schedule_path" envconfig:"SCHEDULE_PATH" validate:"required"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	RequestDelay      time.Duration `yaml:"request_delay" envconfig:"REQUEST_DELAY"`
	SeasonDelay       time.Duration `yaml:"season_delay" envconfig:"SEASON_DELAY"`
	DefaultRetryAfter time.Duration `yaml:"default_retry_after" envconfig:"DEFAULT_RETRY_AFTER"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Browser           bool          `yaml:"browser" envconfig:"BROWSER"`
	Headless          bool          `yaml:"headless" envconfig:"HEADLESS"`
}

// WarehouseConfig points at the ridership warehouse.
type WarehouseConfig struct {
	Driver    string `yaml:"driver" envconfig:"DRIVER" validate:"oneof=postgres sqlite"`
	DSN       string `yaml:"dsn" envconfig:"DSN"`
	StartDate string `yaml:"start_date" envconfig:"START_DATE" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `yaml:"end_date" envconfig:"END_DATE" validate:"omitempty,datetime=2006-01-02"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ServerConfig contains the results API configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"min=0"`
}

// SheetsConfig enables publishing coefficient tables to Google Sheets.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" validate:"required_if=Enabled true"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Enabled true"`
}

// RunConfig controls how station jobs are scheduled.
type RunConfig struct {
	Concurrency int  `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`
	FailFast    bool `yaml:"fail_fast" envconfig:"FAIL_FAST"`
}

// DatasetConfig controls table assembly.
type DatasetConfig struct {
	// DuplicateEventDates decides how event rows sharing a date are joined:
	// "sum" adds them, "first" keeps the earliest row.
	DuplicateEventDates string `yaml:"duplicate_event_dates" envconfig:"DUPLICATE_EVENT_DATES" validate:"required,oneof=sum first"`
}

// StationConfig maps a station to its warehouse ids and relevant event columns.
type StationConfig struct {
	Name          string   `yaml:"name" validate:"required"`
	StationIDs    []string `yaml:"station_ids"`
	EventColumns  []string `yaml:"event_columns"`
	RidershipFile string   `yaml:"ridership_file"`
}

// VenueConfig describes one event source filtered to a single venue.
type VenueConfig struct {
	Name         string   `yaml:"name" validate:"required"`
	Slug         string   `yaml:"slug" validate:"required"`
	HomeTeams    []string `yaml:"home_teams" validate:"min=1"`
	ColumnPrefix string   `yaml:"column_prefix"`
	Seasons      []int    `yaml:"seasons"`
}

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file and environment variables (highest precedence).
func Load(configFile string) (*Config, error) {
	cfg := Default()

	// A missing .env is the common case.
	_ = godotenv.Load()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Stations))
	for _, s := range c.Stations {
		if seen[s.Name] {
			return fmt.Errorf("duplicate station %q", s.Name)
		}
		seen[s.Name] = true
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}
	return nil
}

// Station returns the configuration of the named station.
func (c *Config) Station(name string) (StationConfig, bool) {
	for _, s := range c.Stations {
		if s.Name == name {
			return s, true
		}
	}
	return StationConfig{}, false
}

// Venue returns the configuration of the venue with the given slug.
func (c *Config) Venue(slug string) (VenueConfig, bool) {
	for _, v := range c.Venues {
		if v.Slug == slug {
			return v, true
		}
	}
	return VenueConfig{}, false
}

// EventColumns returns the station → event column mapping.
func (c *Config) EventColumns() map[string][]string {
	out := make(map[string][]string, len(c.Stations))
	for _, s := range c.Stations {
		out[s.Name] = append([]string(nil), s.EventColumns...)
	}
	return out
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "output",
			LogsDir:   "logs",
		},
		Regression: RegressionConfig{
			Folds:            5,
			Scoring:          "neg_mse",
			FitInterceptGrid: []bool{true, false},
		},
		Scraper: ScraperConfig{
			BaseURL:           "https://www.baseball-reference.com/",
			SchedulePath:      "leagues/majors/%d-schedule.shtml",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3",
			RequestDelay:      2 * time.Second,
			SeasonDelay:       10 * time.Second,
			DefaultRetryAfter: 60 * time.Second,
			MaxRetries:        5,
			Timeout:           30 * time.Second,
			Headless:          true,
		},
		Warehouse: WarehouseConfig{
			Driver:    "postgres",
			StartDate: "2019-01-01",
			EndDate:   "2024-01-31",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "ridership-event-effect",
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Run: RunConfig{
			Concurrency: 1,
		},
		Dataset: DatasetConfig{
			DuplicateEventDates: "sum",
		},
	}
}
