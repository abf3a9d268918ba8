package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridership/internal/infrastructure"
)

func TestBootstrap(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	defer infrastructure.ResetLoggerForTesting()

	base := t.TempDir()
	configFile := filepath.Join(base, "config.yaml")
	yaml := "paths:\n" +
		"  base_dir: " + base + "\n" +
		"  data_dir: data\n" +
		"  output_dir: output\n" +
		"logging:\n" +
		"  output: file\n" +
		"  file_path: analyzer.log\n" +
		"telemetry:\n" +
		"  trace_exporter: none\n" +
		"  metrics_file: ridership.prom\n" +
		"stations:\n" +
		"  - name: addison\n" +
		"    station_ids: [\"40240\"]\n"
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0644))

	env, err := Bootstrap(configFile, "analyzer.log")
	require.NoError(t, err)

	assert.Equal(t, base, env.Paths.BaseDir)
	assert.DirExists(t, env.Paths.CSVDir)
	assert.Equal(t, filepath.Join(env.Paths.LogsDir, "analyzer.log"), env.Config.Logging.FilePath)
	require.Len(t, env.Config.Stations, 1)
	assert.NotNil(t, env.Providers.Metrics)

	infrastructure.RecordStationOutcome(context.Background(), env.Providers.Metrics, "addison", "success")
	env.Close(context.Background())

	content, err := os.ReadFile(filepath.Join(env.Paths.OutputDir, "ridership.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ridership_stations_processed")
	assert.FileExists(t, filepath.Join(env.Paths.LogsDir, "analyzer.log"))
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("run:\n  concurrency: 0\n"), 0644))

	_, err := Bootstrap(configFile, "analyzer.log")
	assert.Error(t, err)
}
