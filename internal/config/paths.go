package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// It is built once from PathsConfig and passed explicitly to every stage.
type Paths struct {
	BaseDir   string
	DataDir   string
	RawDir    string
	CleanDir  string
	EventDir  string
	OutputDir string
	ExcelDir  string
	CSVDir    string
	LogsDir   string

	// Well-known input files
	TemperatureCSV string
	EventCSV       string
	ManifestJSON   string
}

// NewPaths resolves PathsConfig into absolute locations.
// Relative directories are resolved against BaseDir, which defaults to
// the directory of the running executable.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	dataDir := resolve(cfg.DataDir, "data")
	outputDir := resolve(cfg.OutputDir, "output")
	cleanDir := filepath.Join(dataDir, "clean")
	eventDir := filepath.Join(dataDir, "event")

	return &Paths{
		BaseDir:        base,
		DataDir:        dataDir,
		RawDir:         filepath.Join(dataDir, "raw"),
		CleanDir:       cleanDir,
		EventDir:       eventDir,
		OutputDir:      outputDir,
		ExcelDir:       filepath.Join(outputDir, "excel"),
		CSVDir:         filepath.Join(outputDir, "csv"),
		LogsDir:        resolve(cfg.LogsDir, "logs"),
		TemperatureCSV: filepath.Join(cleanDir, "temperature.csv"),
		EventCSV:       filepath.Join(eventDir, "event.csv"),
		ManifestJSON:   filepath.Join(outputDir, "manifest.json"),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.CleanDir,
		p.EventDir,
		p.OutputDir,
		p.ExcelDir,
		p.CSVDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// RidershipPath returns the raw warehouse extract for a station.
func (p *Paths) RidershipPath(station StationConfig) string {
	if station.RidershipFile != "" {
		if filepath.IsAbs(station.RidershipFile) {
			return station.RidershipFile
		}
		return filepath.Join(p.BaseDir, station.RidershipFile)
	}
	return filepath.Join(p.RawDir, station.Name+".csv")
}

// CleanStationPath returns the assembled station table location.
func (p *Paths) CleanStationPath(station string) string {
	return filepath.Join(p.CleanDir, station+".csv")
}

// VenueDir returns the directory holding one venue's scraped files.
func (p *Paths) VenueDir(slug string) string {
	return filepath.Join(p.EventDir, slug)
}

// ScoreboxPath returns the raw scorebox CSV for a venue season.
func (p *Paths) ScoreboxPath(slug string, season int) string {
	return filepath.Join(p.VenueDir(slug), fmt.Sprintf("%d_scorebox.csv", season))
}

// VenueEventPath returns the normalized event table of a venue.
func (p *Paths) VenueEventPath(slug string) string {
	return filepath.Join(p.VenueDir(slug), slug+".csv")
}

// VenueGamesPath returns the detailed normalized game table of a venue.
func (p *Paths) VenueGamesPath(slug string) string {
	return filepath.Join(p.VenueDir(slug), slug+"_games.csv")
}

// WorkbookPath returns the analysis workbook for a station.
func (p *Paths) WorkbookPath(station string) string {
	return filepath.Join(p.ExcelDir, station+"_analysis_results.xlsx")
}

// PredictionsPath returns the prediction table CSV for a station.
func (p *Paths) PredictionsPath(station string) string {
	return filepath.Join(p.CSVDir, station+"_predictions.csv")
}

// CoefficientsPath returns the coefficient table CSV for a station.
func (p *Paths) CoefficientsPath(station string) string {
	return filepath.Join(p.CSVDir, station+"_coefficients.csv")
}

// LogPath returns a file path under the logs directory.
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
