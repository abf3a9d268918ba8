package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()

	t.Run("relative directories resolve against base", func(t *testing.T) {
		paths, err := NewPaths(PathsConfig{BaseDir: base, DataDir: "data", OutputDir: "out"})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDir)
		assert.Equal(t, filepath.Join(base, "data", "clean", "temperature.csv"), paths.TemperatureCSV)
		assert.Equal(t, filepath.Join(base, "data", "event", "event.csv"), paths.EventCSV)
		assert.Equal(t, filepath.Join(base, "out", "excel"), paths.ExcelDir)
		assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	})

	t.Run("absolute directories are kept", func(t *testing.T) {
		abs := filepath.Join(base, "elsewhere")
		paths, err := NewPaths(PathsConfig{BaseDir: base, DataDir: abs, OutputDir: "out"})
		require.NoError(t, err)
		assert.Equal(t, abs, paths.DataDir)
	})

	t.Run("base defaults to executable directory", func(t *testing.T) {
		paths, err := NewPaths(PathsConfig{DataDir: "data", OutputDir: "out"})
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(paths.BaseDir))
	})
}

func TestPaths_Files(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(PathsConfig{BaseDir: base, DataDir: "data", OutputDir: "out"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(paths.RawDir, "addison.csv"), paths.RidershipPath(StationConfig{Name: "addison"}))
	assert.Equal(t, filepath.Join(base, "extracts", "a.csv"),
		paths.RidershipPath(StationConfig{Name: "addison", RidershipFile: "extracts/a.csv"}))
	assert.Equal(t, filepath.Join(paths.EventDir, "wrigley", "2023_scorebox.csv"), paths.ScoreboxPath("wrigley", 2023))
	assert.Equal(t, filepath.Join(paths.EventDir, "wrigley", "wrigley.csv"), paths.VenueEventPath("wrigley"))
	assert.Equal(t, filepath.Join(paths.EventDir, "wrigley", "wrigley_games.csv"), paths.VenueGamesPath("wrigley"))
	assert.Equal(t, filepath.Join(paths.ExcelDir, "addison_analysis_results.xlsx"), paths.WorkbookPath("addison"))
	assert.Equal(t, filepath.Join(paths.CSVDir, "addison_predictions.csv"), paths.PredictionsPath("addison"))
	assert.Equal(t, filepath.Join(paths.CSVDir, "addison_coefficients.csv"), paths.CoefficientsPath("addison"))
	assert.Equal(t, filepath.Join(paths.CleanDir, "addison.csv"), paths.CleanStationPath("addison"))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	paths, err := NewPaths(PathsConfig{BaseDir: t.TempDir(), DataDir: "data", OutputDir: "out"})
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.RawDir, paths.CleanDir, paths.EventDir, paths.ExcelDir, paths.CSVDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(paths.DataDir))
	assert.False(t, FileExists(filepath.Join(paths.DataDir, "nope")))
}
