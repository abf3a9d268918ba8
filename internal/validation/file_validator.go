package validation

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ridership/internal/config"
	"ridership/internal/dataset"
	apperrors "ridership/internal/errors"
)

// FileValidator checks run inputs and output locations before any station
// work starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path is a readable, non-empty regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(path)
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is empty", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("%s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile checks that path is a CSV whose header holds every required
// column. A leading UTF-8 BOM is ignored.
func (v *FileValidator) ValidateCSVFile(path, table string, required []string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a CSV file (extension: %s)", path, ext))
	}

	header, err := readHeader(path)
	if err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("failed to read header of %s", path), err)
	}
	if err := dataset.ValidateSchema(table, header, required); err != nil {
		v.logger.Error("CSV header is missing columns",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return header, nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}

// ValidateRunInputs checks the inputs shared by every station: the
// temperature table, the merged event table and the output directories.
// Per-station ridership files are left to the station jobs so one missing
// extract does not stop the others.
func (v *FileValidator) ValidateRunInputs(paths *config.Paths) error {
	if err := v.ValidateCSVFile(paths.TemperatureCSV, "temperature", dataset.TemperatureColumns); err != nil {
		return err
	}
	if err := v.ValidateCSVFile(paths.EventCSV, "events", []string{dataset.ColDate}); err != nil {
		return err
	}
	for _, dir := range []string{paths.OutputDir, paths.CSVDir, paths.ExcelDir} {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	v.logger.Info("Run inputs validated",
		slog.String("temperature", paths.TemperatureCSV),
		slog.String("events", paths.EventCSV))
	return nil
}
