package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ridership/internal/errors"
	"ridership/internal/events"
	"ridership/pkg/contracts/domain"
)

const ridershipCSV = `YEAR,MONTH,SERVICE_DATE,SORT_ALL,BRANCH,STATION,RIDES
2023,1,2023-01-03,1,Red,Addison,50
2023,1,2023-01-02,1,Red,Addison,60
2023,1,2023-01-02,2,Brown,Addison,40
2023,1,2023-01-04,1,Red,Addison,"1,200"
`

const temperatureCSV = `DATE,TMAX,TMIN,WT01,WT02,WT03,WT04,WT05,WT06,WT08,WT09,WT10
2023-01-02,40,20,1,,,,,,,,
2023-01-03,50,,,,,,,,1,,
`

const eventCSV = `date,cubs_sat,cubs_night_weekday(nofri),other
2023-01-02,0,30000,7
2023-01-02,0,10000,7
2023-01-05,0,25000,7
`

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestValidateSchema(t *testing.T) {
	err := ValidateSchema("ridership", []string{"YEAR", "MONTH", "SERVICE_DATE", "BRANCH", "STATION"}, RidershipColumns)
	require.Error(t, err)

	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "ridership", schemaErr.Table)
	assert.Equal(t, []string{"RIDES", "SORT_ALL"}, schemaErr.Missing)

	assert.NoError(t, ValidateSchema("ridership", RidershipColumns, RidershipColumns))
}

func TestLoadRidershipAggregates(t *testing.T) {
	table, err := LoadRidership(strings.NewReader(ridershipCSV))
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{ColRidership}, table.Columns)
	assert.Equal(t, mustDate(t, "2023-01-02"), table.Dates[0])
	assert.Equal(t, mustDate(t, "2023-01-03"), table.Dates[1])
	rides, _ := table.Column(ColRidership)
	assert.Equal(t, []float64{100, 50, 1200}, rides)
}

func TestLoadRidershipMissingColumn(t *testing.T) {
	_, err := LoadRidership(strings.NewReader("YEAR,MONTH,SERVICE_DATE,STATION,RIDES\n2023,1,2023-01-02,Addison,5\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaError(err))
	assert.Contains(t, err.Error(), "BRANCH")
	assert.Contains(t, err.Error(), "SORT_ALL")
}

func TestLoadRidershipBadRides(t *testing.T) {
	_, err := LoadRidership(strings.NewReader("YEAR,MONTH,SERVICE_DATE,SORT_ALL,BRANCH,STATION,RIDES\n2023,1,2023-01-02,1,Red,Addison,lots\n"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestLoadRidershipWithBOM(t *testing.T) {
	table, err := LoadRidership(strings.NewReader("\ufeff" + ridershipCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestLoadTemperature(t *testing.T) {
	table, err := LoadTemperature(strings.NewReader(temperatureCSV))
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, append([]string{ColTemperature}, WeatherFlags...), table.Columns)

	temp, _ := table.Column(ColTemperature)
	assert.Equal(t, []float64{30, 0}, temp, "missing TMIN leaves temperature at 0")

	wt01, _ := table.Column("WT01")
	assert.Equal(t, []float64{1, 0}, wt01)
	wt08, _ := table.Column("WT08")
	assert.Equal(t, []float64{0, 1}, wt08)
}

func TestLoadEventsMissingConfiguredColumn(t *testing.T) {
	_, err := LoadEvents(strings.NewReader(eventCSV), []string{"cubs_sat", "sox_fri"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaError(err))
	assert.Contains(t, err.Error(), "sox_fri")
}

func TestLeftJoinCompleteness(t *testing.T) {
	ridership, err := LoadRidership(strings.NewReader(ridershipCSV))
	require.NoError(t, err)
	temperature, err := LoadTemperature(strings.NewReader(temperatureCSV))
	require.NoError(t, err)
	eventTable, err := LoadEvents(strings.NewReader(eventCSV), []string{"cubs_sat", "cubs_night_weekday(nofri)"})
	require.NoError(t, err)

	table, err := Assemble(ridership, temperature, eventTable, DuplicateSum)
	require.NoError(t, err)
	require.Equal(t, ridership.Len(), table.Len(), "no ridership row is dropped")
	assert.Equal(t, ridership.Dates, table.Dates)

	// 2023-01-04 has neither temperature nor events.
	row := table.Row(2)
	assert.Equal(t, 1200.0, row[0])
	for c := 1; c < len(row); c++ {
		assert.Zero(t, row[c], table.Columns[c])
	}

	night, _ := table.Column("cubs_night_weekday(nofri)")
	assert.Equal(t, []float64{40000, 0, 0}, night)
	_, hasOther := table.Column("other")
	assert.False(t, hasOther, "only configured event columns are joined")
}

func TestLeftJoinFirstPolicy(t *testing.T) {
	ridership, err := LoadRidership(strings.NewReader(ridershipCSV))
	require.NoError(t, err)
	eventTable, err := LoadEvents(strings.NewReader(eventCSV), []string{"cubs_night_weekday(nofri)"})
	require.NoError(t, err)

	table, err := LeftJoin(ridership, eventTable, DuplicateFirst)
	require.NoError(t, err)
	night, _ := table.Column("cubs_night_weekday(nofri)")
	assert.Equal(t, []float64{30000, 0, 0}, night)
}

func TestLeftJoinKeepsBaseOrderWithoutMatches(t *testing.T) {
	base := NewTable("base", ColRidership)
	base.AppendRow(mustDate(t, "2023-03-02"), 7)
	base.AppendRow(mustDate(t, "2023-03-01"), 5)
	other := NewTable("event", "a", "b")
	other.AppendRow(mustDate(t, "2023-03-01"), 1, 2)
	other.AppendRow(mustDate(t, "2023-03-01"), 10, 20)
	other.AppendRow(mustDate(t, "2023-02-28"), 99, 99)

	table, err := LeftJoin(base, other, DuplicateSum)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{mustDate(t, "2023-03-02"), mustDate(t, "2023-03-01")}, table.Dates)
	assert.Equal(t, []string{ColRidership, "a", "b"}, table.Columns)
	assert.Equal(t, []float64{7, 0, 0}, table.Row(0))
	assert.Equal(t, []float64{5, 11, 22}, table.Row(1))

	empty := NewTable("event", "a")
	table, err = LeftJoin(base, empty, DuplicateSum)
	require.NoError(t, err)
	a, _ := table.Column("a")
	assert.Equal(t, []float64{0, 0}, a)
}

func TestAggregateRidershipSortsAndSums(t *testing.T) {
	table, err := AggregateRidership([]RidershipRow{
		{Date: mustDate(t, "2023-01-05"), Rides: 3},
		{Date: mustDate(t, "2023-01-01"), Rides: 1.5},
		{Date: mustDate(t, "2023-01-05"), Rides: 4},
		{Date: mustDate(t, "2022-12-31"), Rides: 1000000},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{mustDate(t, "2022-12-31"), mustDate(t, "2023-01-01"), mustDate(t, "2023-01-05")}, table.Dates)
	rides, _ := table.Column(ColRidership)
	assert.Equal(t, []float64{1000000, 1.5, 7}, rides)

	table, err = AggregateRidership(nil)
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("first")
	require.NoError(t, err)
	assert.Equal(t, DuplicateFirst, p)

	_, err = ParseDuplicatePolicy("")
	assert.Error(t, err, "the policy has no implicit default")

	_, err = ParseDuplicatePolicy("mean")
	assert.Error(t, err)
}

func TestAssembleEndToEndScenario(t *testing.T) {
	ridership, err := AggregateRidership([]RidershipRow{{Date: mustDate(t, "2023-01-02"), Rides: 100}})
	require.NoError(t, err)
	temperature, err := LoadTemperature(strings.NewReader(
		"DATE,TMAX,TMIN,WT01,WT02,WT03,WT04,WT05,WT06,WT08,WT09,WT10\n2023-01-02,40,20,,,,,,,,,\n"))
	require.NoError(t, err)
	eventTable := NewTable("event", events.ColumnNames("")...)

	table, err := Assemble(ridership, temperature, eventTable, DuplicateSum)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	ridershipCol, _ := table.Column(ColRidership)
	assert.Equal(t, 100.0, ridershipCol[0])
	temp, _ := table.Column(ColTemperature)
	assert.Equal(t, 30.0, temp[0])
	for _, c := range append(append([]string(nil), WeatherFlags...), events.ColumnNames("")...) {
		v, ok := table.Column(c)
		require.True(t, ok, c)
		assert.Zero(t, v[0], c)
	}
	assert.Equal(t, 0, events.Weekday(table.Dates[0]), "2023-01-02 is a Monday")
}

func TestFromEventTable(t *testing.T) {
	ctx := context.Background()
	games, _ := events.Normalize(ctx, []domain.GameRecord{{
		Date:       "Monday, January 2, 2023",
		Time:       "7:05 p.m.",
		Attendance: "Attendance: 30,000",
		Venue:      "Venue: Wrigley Field",
	}}, nil)
	et := events.Project(ctx, games, "Wrigley Field", "cubs", nil)

	table, err := FromEventTable(et, []string{"cubs_night_weekday(nofri)"})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []float64{30000}, table.Row(0))

	_, err = FromEventTable(et, []string{"sox_fri"})
	assert.True(t, apperrors.IsSchemaError(err))
}

func TestAssembleFiles(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		Ridership:   filepath.Join(dir, "addison.csv"),
		Temperature: filepath.Join(dir, "temperature.csv"),
		Events:      filepath.Join(dir, "event.csv"),
	}
	require.NoError(t, os.WriteFile(files.Ridership, []byte(ridershipCSV), 0644))
	require.NoError(t, os.WriteFile(files.Temperature, []byte(temperatureCSV), 0644))
	require.NoError(t, os.WriteFile(files.Events, []byte(eventCSV), 0644))

	table, err := AssembleFiles(files, []string{"cubs_sat"}, DuplicateSum)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "cubs_sat", table.Columns[len(table.Columns)-1])

	files.Events = filepath.Join(dir, "missing.csv")
	_, err = AssembleFiles(files, []string{"cubs_sat"}, DuplicateSum)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestTableFrame(t *testing.T) {
	table := NewTable("t", "a")
	table.AppendRow(mustDate(t, "2023-01-02"), 1.5)
	df := table.Frame()
	require.NoError(t, df.Err)
	assert.Equal(t, []string{ColDate, "a"}, df.Names())
	assert.Equal(t, []string{"2023-01-02"}, df.Col(ColDate).Records())
}

func TestTableRecords(t *testing.T) {
	table := NewTable("t", "a", "b")
	table.AppendRow(mustDate(t, "2023-01-02"), 1.5, 2)
	assert.Equal(t, []string{"date", "a", "b"}, table.Headers())
	assert.Equal(t, [][]string{{"2023-01-02", "1.5", "2"}}, table.Records())
}
