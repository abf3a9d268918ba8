package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	_ "modernc.org/sqlite"

	"ridership/internal/config"
	"ridership/internal/dataset"
	apperrors "ridership/internal/errors"
	"ridership/internal/exporter"
	"ridership/internal/infrastructure"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the warehouse and verifies the connection.
func Open(ctx context.Context, cfg config.WarehouseConfig) (*sql.DB, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported warehouse driver %q", cfg.Driver), nil)
	}
	if cfg.DSN == "" {
		return nil, apperrors.NewConfigError("warehouse dsn is empty", nil)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open warehouse", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("warehouse ping failed", err)
	}
	return db, nil
}

// Row is one station-day of the extract.
type Row struct {
	Year        int
	Month       int
	ServiceDate string
	SortAll     string
	Branch      string
	Station     string
	Rides       float64
}

// Record returns the row in dataset.RidershipColumns order.
func (r Row) Record() []string {
	return []string{
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		r.ServiceDate,
		r.SortAll,
		r.Branch,
		r.Station,
		strconv.FormatFloat(r.Rides, 'f', -1, 64),
	}
}

// Extractor runs the ridership query
type Extractor struct {
	db      *sql.DB
	driver  string
	start   string
	end     string
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// New creates an Extractor over db. metrics may be nil.
func New(db *sql.DB, cfg config.WarehouseConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		db:      db,
		driver:  cfg.Driver,
		start:   cfg.StartDate,
		end:     cfg.EndDate,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "warehouse"),
	}
}

// BuildQuery returns the ridership query for n station ids and its
// placeholder layout: start date, end date, then the ids.
func BuildQuery(driver string, n int) string {
	ph := placeholders(driver, n+2)
	return `
SELECT d3.year, d3.month, d3.service_date, s.sort_all, b.pubreportname AS branch, s.name AS station,
       SUM(nm.rides) AS rides
FROM nm45dayall nm
JOIN dim_daytype3 d3 ON nm.yyyymmdd = d3.dateid
JOIN entrances e ON nm.entrance_id = e.entrance_id
JOIN stations s ON e.station_id = s.station_id
JOIN branches b ON s.branch_id = b.branch_id
WHERE d3.service_date BETWEEN ` + ph[0] + ` AND ` + ph[1] + `
  AND s.station_id IN (` + strings.Join(ph[2:], ", ") + `)
GROUP BY d3.year, d3.month, d3.service_date, s.sort_all, b.pubreportname, s.name
ORDER BY d3.year, d3.month, d3.service_date, s.sort_all`
}

func placeholders(driver string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if driver == DriverPostgres {
			out[i] = "$" + strconv.Itoa(i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

// Query returns the daily rides of the given station ids between start and
// end inclusive, ordered by date.
func (e *Extractor) Query(ctx context.Context, stationIDs []string, start, end string) ([]Row, error) {
	if len(stationIDs) == 0 {
		return nil, apperrors.NewConfigError("no station ids configured", nil)
	}

	args := make([]any, 0, len(stationIDs)+2)
	args = append(args, start, end)
	for _, id := range stationIDs {
		args = append(args, id)
	}

	rows, err := e.db.QueryContext(ctx, BuildQuery(e.driver, len(stationIDs)), args...)
	if err != nil {
		return nil, apperrors.NewStorageError("ridership query failed", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r    Row
			date any
		)
		if err := rows.Scan(&r.Year, &r.Month, &date, &r.SortAll, &r.Branch, &r.Station, &r.Rides); err != nil {
			return nil, apperrors.NewStorageError("failed to scan ridership row", err)
		}
		r.ServiceDate, err = formatDate(date)
		if err != nil {
			return nil, apperrors.NewParsingError("unexpected service_date", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("ridership query failed", err)
	}
	return out, nil
}

// formatDate renders a scanned date column in config.DateLayout. Postgres
// returns DATE as time.Time; SQLite stores it as text.
func formatDate(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		return d.Format(config.DateLayout), nil
	case []byte:
		return trimDate(string(d))
	case string:
		return trimDate(d)
	default:
		return "", fmt.Errorf("type %T", v)
	}
}

func trimDate(s string) (string, error) {
	if len(s) < len(config.DateLayout) {
		return "", fmt.Errorf("value %q", s)
	}
	s = s[:len(config.DateLayout)]
	if _, err := time.Parse(config.DateLayout, s); err != nil {
		return "", err
	}
	return s, nil
}

// ExtractStation queries one station over the configured date range and
// writes the extract to path. It returns the number of rows written.
func (e *Extractor) ExtractStation(ctx context.Context, station config.StationConfig, writer *exporter.CSVWriter, path string) (int, error) {
	start := time.Now()
	rows, err := e.Query(ctx, station.StationIDs, e.start, e.end)
	if err != nil {
		return 0, fmt.Errorf("station %s: %w", station.Name, err)
	}

	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	if err := writer.WriteSimpleCSV(path, dataset.RidershipColumns, records); err != nil {
		return 0, apperrors.NewStorageError("failed to write ridership extract", err).WithContext("path", path)
	}

	if e.metrics != nil {
		e.metrics.RowsExtracted.Add(ctx, int64(len(rows)),
			metric.WithAttributes(attribute.String("station", station.Name)))
	}
	e.logger.InfoContext(ctx, "Ridership extracted",
		slog.String("station", station.Name),
		slog.String("rows", humanize.Comma(int64(len(rows)))),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))
	return len(rows), nil
}

// ExtractAll extracts every station to its ridership path. Stations without
// station ids are skipped.
func (e *Extractor) ExtractAll(ctx context.Context, stations []config.StationConfig, paths *config.Paths, writer *exporter.CSVWriter) (map[string]int, error) {
	counts := make(map[string]int, len(stations))
	for _, station := range stations {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		if len(station.StationIDs) == 0 {
			e.logger.WarnContext(ctx, "Station has no warehouse ids, skipping",
				slog.String("station", station.Name))
			continue
		}
		n, err := e.ExtractStation(ctx, station, writer, paths.RidershipPath(station))
		if err != nil {
			return counts, err
		}
		counts[station.Name] = n
	}
	return counts, nil
}
