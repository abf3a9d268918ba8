package warehouse

import (
	"context"
	"database/sql"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridership/internal/config"
	"ridership/internal/dataset"
	apperrors "ridership/internal/errors"
	"ridership/internal/exporter"
	"ridership/internal/shared/testutil"
)

const testSchema = `
CREATE TABLE branches (branch_id INTEGER PRIMARY KEY, pubreportname TEXT);
CREATE TABLE stations (station_id TEXT PRIMARY KEY, sort_all INTEGER, name TEXT, branch_id INTEGER);
CREATE TABLE entrances (entrance_id INTEGER PRIMARY KEY, station_id TEXT);
CREATE TABLE dim_daytype3 (dateid INTEGER PRIMARY KEY, year INTEGER, month INTEGER, service_date TEXT);
CREATE TABLE nm45dayall (entrance_id INTEGER, yyyymmdd INTEGER, rides INTEGER);

INSERT INTO branches VALUES (1, 'North Main'), (2, 'O''Hare');
INSERT INTO stations VALUES ('1420', 37, 'Addison-North Main', 1), ('890', 120, 'O''Hare Airport', 2), ('930', 121, 'O''Hare Airport', 2);
INSERT INTO entrances VALUES (10, '1420'), (11, '1420'), (20, '890'), (21, '930');
INSERT INTO dim_daytype3 VALUES
  (20181231, 2018, 12, '2018-12-31'),
  (20190101, 2019, 1, '2019-01-01'),
  (20190102, 2019, 1, '2019-01-02');
INSERT INTO nm45dayall VALUES
  (10, 20181231, 999),
  (10, 20190101, 1200), (11, 20190101, 300),
  (10, 20190102, 1500),
  (20, 20190101, 4000), (21, 20190101, 2500);
`

func openTestDB(t *testing.T) (*sql.DB, config.WarehouseConfig) {
	t.Helper()
	cfg := config.WarehouseConfig{
		Driver:    DriverSQLite,
		DSN:       filepath.Join(t.TempDir(), "warehouse.db"),
		StartDate: "2019-01-01",
		EndDate:   "2024-01-31",
	}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db, cfg
}

func TestQuerySumsEntrancesPerDay(t *testing.T) {
	db, cfg := openTestDB(t)
	ex := New(db, cfg, nil, nil)

	rows, err := ex.Query(context.Background(), []string{"1420"}, cfg.StartDate, cfg.EndDate)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{Year: 2019, Month: 1, ServiceDate: "2019-01-01", SortAll: "37",
		Branch: "North Main", Station: "Addison-North Main", Rides: 1500}, rows[0])
	assert.Equal(t, "2019-01-02", rows[1].ServiceDate)
	assert.Equal(t, 1500.0, rows[1].Rides)
}

func TestQueryMultipleStationIDs(t *testing.T) {
	db, cfg := openTestDB(t)
	ex := New(db, cfg, nil, nil)

	rows, err := ex.Query(context.Background(), []string{"890", "930"}, "2019-01-01", "2019-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "120", rows[0].SortAll)
	assert.Equal(t, 4000.0, rows[0].Rides)
	assert.Equal(t, "121", rows[1].SortAll)
	assert.Equal(t, 2500.0, rows[1].Rides)
}

func TestQueryRequiresStationIDs(t *testing.T) {
	db, cfg := openTestDB(t)
	_, err := New(db, cfg, nil, nil).Query(context.Background(), nil, cfg.StartDate, cfg.EndDate)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
}

func TestExtractAllWritesLoadableExtract(t *testing.T) {
	db, cfg := openTestDB(t)
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir(), DataDir: "data", OutputDir: "output"})
	require.NoError(t, err)
	writer := exporter.NewCSVWriter(paths)

	stations := []config.StationConfig{
		{Name: "addison", StationIDs: []string{"1420"}},
		{Name: "manual"},
	}
	logger, logs := testutil.NewTestLogger(t)
	counts, err := New(db, cfg, nil, logger).ExtractAll(context.Background(), stations, paths, writer)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"addison": 2}, counts)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "no warehouse ids")
	testutil.AssertLogAttr(t, logs, "station", "manual")

	path := paths.RidershipPath(stations[0])
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, dataset.RidershipColumns, records[0])
	assert.Equal(t, []string{"2019", "1", "2019-01-01", "37", "North Main", "Addison-North Main", "1500"}, records[1])

	f2, err := os.Open(path)
	require.NoError(t, err)
	defer f2.Close()
	table, err := dataset.LoadRidership(f2)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestBuildQueryPlaceholders(t *testing.T) {
	pg := BuildQuery(DriverPostgres, 3)
	assert.Contains(t, pg, "BETWEEN $1 AND $2")
	assert.Contains(t, pg, "IN ($3, $4, $5)")

	lite := BuildQuery(DriverSQLite, 2)
	assert.Contains(t, lite, "BETWEEN ? AND ?")
	assert.Contains(t, lite, "IN (?, ?)")
	assert.False(t, strings.Contains(lite, "$"))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(context.Background(), config.WarehouseConfig{Driver: "oracle", DSN: "x"})
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))

	_, err = Open(context.Background(), config.WarehouseConfig{Driver: DriverPostgres})
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
}

func TestFormatDate(t *testing.T) {
	got, err := formatDate([]byte("2019-01-02T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2019-01-02", got)

	_, err = formatDate(int64(20190102))
	assert.Error(t, err)
	_, err = formatDate("01/02/19")
	assert.Error(t, err)
}
