package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridership/internal/config"
	apperrors "ridership/internal/errors"
	"ridership/internal/shared/testutil"
)

func newValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.csv")
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(full, []byte("a\n1\n"), 0644))
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	logger, logs := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	assert.NoError(t, v.ValidateFile(full))
	testutil.AssertNoErrors(t, logs)

	err := v.ValidateFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
	testutil.AssertLogContains(t, logs, slog.LevelError, "File does not exist")

	err = v.ValidateFile(empty)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	v := newValidator()

	tests := []struct {
		name     string
		file     string
		content  string
		required []string
		wantType apperrors.ErrorType
	}{
		{name: "header ok", file: "ok.csv", content: "date,x\n", required: []string{"date"}},
		{name: "bom header", file: "bom.csv", content: "\ufeffdate,x\n", required: []string{"date"}},
		{name: "padded header", file: "pad.csv", content: " date , x\n", required: []string{"date", "x"}},
		{name: "missing column", file: "miss.csv", content: "x,y\n", required: []string{"date"}, wantType: apperrors.ErrTypeSchema},
		{name: "wrong extension", file: "data.txt", content: "date\n", required: []string{"date"}, wantType: apperrors.ErrTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			err := v.ValidateCSVFile(path, "events", tt.required)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, newValidator().ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
}

func TestFileValidator_ValidateRunInputs(t *testing.T) {
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir(), DataDir: "data", OutputDir: "output"})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	v := newValidator()

	err = v.ValidateRunInputs(paths)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))

	require.NoError(t, os.WriteFile(paths.TemperatureCSV,
		[]byte("DATE,TMAX,TMIN,WT01,WT02,WT03,WT04,WT05,WT06,WT08,WT09,WT10\n2023-04-01,60,40,,,,,,,,,\n"), 0644))
	require.NoError(t, os.WriteFile(paths.EventCSV, []byte("game_date,x\n2023-04-01,1\n"), 0644))

	err = v.ValidateRunInputs(paths)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSchema, apperrors.TypeOf(err))

	require.NoError(t, os.WriteFile(paths.EventCSV, []byte("date,x\n2023-04-01,1\n"), 0644))
	assert.NoError(t, v.ValidateRunInputs(paths))
}
