package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"ridership/internal/config"
)

// Table is a dense date-keyed numeric table. Values is column-major:
// Values[c][r] is column c at row r.
type Table struct {
	Name    string
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Values:  make([][]float64, len(columns)),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Dates)
}

// AppendRow adds a row; values must follow Columns order.
func (t *Table) AppendRow(date time.Time, values ...float64) {
	t.Dates = append(t.Dates, date)
	for c := range t.Columns {
		var v float64
		if c < len(values) {
			v = values[c]
		}
		t.Values[c] = append(t.Values[c], v)
	}
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of column name.
func (t *Table) Column(name string) ([]float64, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.Values[i], true
}

// Row returns the values of row r in Columns order.
func (t *Table) Row(r int) []float64 {
	row := make([]float64, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Values[c][r]
	}
	return row
}

// Headers returns the CSV header row.
func (t *Table) Headers() []string {
	return append([]string{"date"}, t.Columns...)
}

// Records returns the CSV body rows.
func (t *Table) Records() [][]string {
	out := make([][]string, t.Len())
	for r, d := range t.Dates {
		rec := make([]string, 0, len(t.Columns)+1)
		rec = append(rec, d.Format(config.DateLayout))
		for c := range t.Columns {
			rec = append(rec, strconv.FormatFloat(t.Values[c][r], 'f', -1, 64))
		}
		out[r] = rec
	}
	return out
}

// Frame returns the table as a dataframe with a text "date" key column
// followed by one float column per table column.
func (t *Table) Frame() dataframe.DataFrame {
	dates := make([]string, t.Len())
	for i, d := range t.Dates {
		dates[i] = dateKey(d)
	}
	cols := make([]series.Series, 0, len(t.Columns)+1)
	cols = append(cols, series.New(dates, series.String, ColDate))
	for c, name := range t.Columns {
		cols = append(cols, series.New(t.Values[c], series.Float, name))
	}
	return dataframe.New(cols...)
}

// frameToTable reads columns of df back into a table. Missing values, as left
// by an unmatched join row, become 0.
func frameToTable(name string, df dataframe.DataFrame, columns []string) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	dates := df.Col(ColDate)
	if dates.Err != nil {
		return nil, dates.Err
	}

	table := NewTable(name, columns...)
	for _, s := range dates.Records() {
		d, err := time.Parse(config.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("frame date %q: %w", s, err)
		}
		table.Dates = append(table.Dates, d)
	}
	for c, col := range columns {
		values := df.Col(col)
		if values.Err != nil {
			return nil, values.Err
		}
		floats := values.Float()
		for i, v := range floats {
			if math.IsNaN(v) {
				floats[i] = 0
			}
		}
		table.Values[c] = floats
	}
	return table, nil
}

func dateKey(d time.Time) string {
	return d.Format(config.DateLayout)
}

func (t *Table) String() string {
	return fmt.Sprintf("%s(%d rows x %d columns)", t.Name, t.Len(), len(t.Columns))
}
