package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "ridership/internal/errors"
	"ridership/internal/events"
)

// Standard warehouse extract columns.
var RidershipColumns = []string{"YEAR", "MONTH", "SERVICE_DATE", "SORT_ALL", "BRANCH", "STATION", "RIDES"}

// WeatherFlags are the weather-type indicator columns of the temperature table.
var WeatherFlags = []string{"WT01", "WT02", "WT03", "WT04", "WT05", "WT06", "WT08", "WT09", "WT10"}

// TemperatureColumns are the required temperature table columns.
var TemperatureColumns = append([]string{"DATE", "TMAX", "TMIN"}, WeatherFlags...)

// Assembled column names.
const (
	ColRidership   = "ridership"
	ColTemperature = "temperature"
	ColDate        = "date"
)

// readFrame reads a CSV as an all-text dataframe. A leading UTF-8 BOM is dropped.
func readFrame(r io.Reader) (dataframe.DataFrame, error) {
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	return df, df.Err
}

// ValidateSchema checks that every required column is present.
func ValidateSchema(table string, columns, required []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewSchemaError(table, missing)
	}
	return nil
}

// RidershipRow is one warehouse extract row after the non-essential columns
// are dropped.
type RidershipRow struct {
	Date  time.Time
	Rides float64
}

// LoadRidership reads and validates a warehouse extract and sums rides per date.
func LoadRidership(r io.Reader) (*Table, error) {
	df, err := readFrame(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read ridership extract", err)
	}
	if err := ValidateSchema("ridership", df.Names(), RidershipColumns); err != nil {
		return nil, err
	}

	dates := df.Col("SERVICE_DATE").Records()
	rides := df.Col("RIDES").Records()

	rows := make([]RidershipRow, 0, len(dates))
	for i := range dates {
		d, ok := events.ParseDate(dates[i])
		if !ok {
			return nil, apperrors.NewParsingError("unparseable SERVICE_DATE", nil).
				WithContext("row", i+1).WithContext("value", dates[i])
		}
		v, err := parseNumber(rides[i])
		if err != nil {
			return nil, apperrors.NewParsingError("unparseable RIDES", err).
				WithContext("row", i+1).WithContext("value", rides[i])
		}
		rows = append(rows, RidershipRow{Date: d, Rides: v})
	}
	table, err := AggregateRidership(rows)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to aggregate ridership", err)
	}
	return table, nil
}

// LoadTemperature reads the daily temperature table. The assembled columns are
// temperature = (TMAX+TMIN)/2 followed by the weather flags. Blank cells are 0.
func LoadTemperature(r io.Reader) (*Table, error) {
	df, err := readFrame(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read temperature table", err)
	}
	if err := ValidateSchema("temperature", df.Names(), TemperatureColumns); err != nil {
		return nil, err
	}

	dates := df.Col("DATE").Records()
	cols := make([][]string, len(TemperatureColumns))
	for i, name := range TemperatureColumns {
		cols[i] = df.Col(name).Records()
	}

	table := NewTable("temperature", append([]string{ColTemperature}, WeatherFlags...)...)
	for r := range dates {
		d, ok := events.ParseDate(dates[r])
		if !ok {
			return nil, apperrors.NewParsingError("unparseable DATE", nil).
				WithContext("row", r+1).WithContext("value", dates[r])
		}
		values := make([]float64, 0, len(table.Columns))

		tmax, errMax := parseNumber(cols[1][r])
		tmin, errMin := parseNumber(cols[2][r])
		if errMax != nil || errMin != nil {
			values = append(values, 0)
		} else {
			values = append(values, (tmax+tmin)/2)
		}
		for c := 3; c < len(cols); c++ {
			v, err := parseNumber(cols[c][r])
			if err != nil {
				v = 0
			}
			values = append(values, v)
		}
		table.AppendRow(d, values...)
	}
	return table, nil
}

// LoadEvents reads the event table restricted to columns. A configured column
// absent from the file is a schema error. Blank cells are 0.
func LoadEvents(r io.Reader, columns []string) (*Table, error) {
	df, err := readFrame(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read event table", err)
	}
	required := append([]string{ColDate}, columns...)
	if err := ValidateSchema("event", df.Names(), required); err != nil {
		return nil, err
	}

	dates := df.Col(ColDate).Records()
	cols := make([][]string, len(columns))
	for i, name := range columns {
		cols[i] = df.Col(name).Records()
	}

	table := NewTable("event", columns...)
	for r := range dates {
		d, ok := events.ParseDate(dates[r])
		if !ok {
			return nil, apperrors.NewParsingError("unparseable event date", nil).
				WithContext("row", r+1).WithContext("value", dates[r])
		}
		values := make([]float64, len(columns))
		for c := range columns {
			v, err := parseNumber(cols[c][r])
			if err != nil {
				v = 0
			}
			values[c] = v
		}
		table.AppendRow(d, values...)
	}
	return table, nil
}

// FromEventTable converts a projected event table, keeping only columns.
func FromEventTable(et *events.EventTable, columns []string) (*Table, error) {
	index := make(map[string]int, len(et.Columns))
	for i, c := range et.Columns {
		index[c] = i
	}
	if err := ValidateSchema("event", et.Columns, columns); err != nil {
		return nil, err
	}

	table := NewTable("event", columns...)
	for _, row := range et.Rows {
		values := make([]float64, len(columns))
		for c, name := range columns {
			values[c] = row.Values[index[name]]
		}
		table.AppendRow(row.Date, values...)
	}
	return table, nil
}

// Files names the inputs of one station.
type Files struct {
	Ridership   string
	Temperature string
	Events      string
}

// AssembleFiles loads the three inputs from disk and assembles them.
func AssembleFiles(files Files, eventColumns []string, policy DuplicatePolicy) (*Table, error) {
	ridership, err := loadFile(files.Ridership, LoadRidership)
	if err != nil {
		return nil, err
	}
	temperature, err := loadFile(files.Temperature, LoadTemperature)
	if err != nil {
		return nil, err
	}
	eventTable, err := loadFile(files.Events, func(r io.Reader) (*Table, error) {
		return LoadEvents(r, eventColumns)
	})
	if err != nil {
		return nil, err
	}
	return Assemble(ridership, temperature, eventTable, policy)
}

func loadFile(path string, load func(io.Reader) (*Table, error)) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	t, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
