package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging:
  level: debug
paths:
  data_dir: /srv/data
  output_dir: /srv/output
regression:
  folds: 4
  scoring: r2
scraper:
  request_delay: 3s
stations:
  - name: addison
    station_ids: ["1420"]
    event_columns:
      - sport_game_attendance_fri
      - sport_game_attendance_sat
  - name: airport
    station_ids: ["890", "930"]
venues:
  - name: Wrigley Field
    slug: wrigley
    home_teams: ["Chicago Cubs"]
    seasons: [2023, 2022]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Regression.Folds)
	assert.Equal(t, "neg_mse", cfg.Regression.Scoring)
	assert.Equal(t, []bool{true, false}, cfg.Regression.FitInterceptGrid)
	assert.Equal(t, 2*time.Second, cfg.Scraper.RequestDelay)
	assert.Equal(t, 60*time.Second, cfg.Scraper.DefaultRetryAfter)
	assert.Equal(t, "sum", cfg.Dataset.DuplicateEventDates)
	assert.Empty(t, cfg.Stations)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/data", cfg.Paths.DataDir)
	assert.Equal(t, 4, cfg.Regression.Folds)
	assert.Equal(t, "r2", cfg.Regression.Scoring)
	assert.Equal(t, 3*time.Second, cfg.Scraper.RequestDelay)
	// untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Scraper.MaxRetries)

	require.Len(t, cfg.Stations, 2)
	addison, ok := cfg.Station("addison")
	require.True(t, ok)
	assert.Equal(t, []string{"1420"}, addison.StationIDs)

	mapping := cfg.EventColumns()
	assert.Equal(t, []string{"sport_game_attendance_fri", "sport_game_attendance_sat"}, mapping["addison"])
	assert.Empty(t, mapping["airport"])

	venue, ok := cfg.Venue("wrigley")
	require.True(t, ok)
	assert.Equal(t, "Wrigley Field", venue.Name)
	assert.Equal(t, []int{2023, 2022}, venue.Seasons)

	_, ok = cfg.Venue("soldier")
	assert.False(t, ok)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("RIDERSHIP_REGRESSION_FOLDS", "3")
	t.Setenv("RIDERSHIP_LOGGING_LEVEL", "warn")
	t.Setenv("RIDERSHIP_SCRAPER_MAX_RETRIES", "1")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Regression.Folds)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.Scraper.MaxRetries)
	// env does not clear file-only sections
	assert.Len(t, cfg.Stations, 2)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	t.Setenv("RIDERSHIP_CONFIG", writeConfig(t, sampleYAML))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.Venues, 1)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown scoring",
			yaml: "regression:\n  scoring: accuracy\n",
		},
		{
			name: "too few folds",
			yaml: "regression:\n  folds: 1\n",
		},
		{
			name: "duplicate station",
			yaml: "stations:\n  - name: addison\n  - name: addison\n",
		},
		{
			name: "venue without home teams",
			yaml: "venues:\n  - name: Wrigley Field\n    slug: wrigley\n",
		},
		{
			name: "sheets enabled without spreadsheet",
			yaml: "sheets:\n  enabled: true\n  credentials_file: creds.json\n",
		},
		{
			name: "empty duplicate date policy",
			yaml: "dataset:\n  duplicate_event_dates: \"\"\n",
		},
		{
			name: "unknown duplicate date policy",
			yaml: "dataset:\n  duplicate_event_dates: average\n",
		},
		{
			name: "malformed yaml",
			yaml: "stations: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
