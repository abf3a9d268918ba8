package dataset

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// DuplicatePolicy decides how rows of a joined table sharing a date collapse.
type DuplicatePolicy string

const (
	DuplicateSum   DuplicatePolicy = "sum"
	DuplicateFirst DuplicatePolicy = "first"
)

// ParseDuplicatePolicy validates a configured policy name. There is no
// implicit default; config.Default sets one explicitly.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case DuplicateSum, DuplicateFirst:
		return DuplicatePolicy(s), nil
	case "":
		return "", fmt.Errorf("duplicate date policy is required (%s or %s)", DuplicateSum, DuplicateFirst)
	}
	return "", fmt.Errorf("unknown duplicate date policy %q", s)
}

// AggregateRidership sums rides per date and returns them in ascending date
// order as a single "ridership" column.
func AggregateRidership(rows []RidershipRow) (*Table, error) {
	table := NewTable("ridership", ColRidership)
	for _, r := range rows {
		table.AppendRow(r.Date, r.Rides)
	}
	if table.Len() == 0 {
		return table, nil
	}

	summed := sumByDate(table.Frame(), table.Columns).Arrange(dataframe.Sort(ColDate))
	return frameToTable(table.Name, summed, table.Columns)
}

// LeftJoin appends other's columns to base on date. Every base row is kept in
// base order; a base date absent from other gets 0 in all of other's columns.
// Rows of other sharing a date are collapsed according to policy first.
func LeftJoin(base, other *Table, policy DuplicatePolicy) (*Table, error) {
	right := other.Frame()
	if right.Nrow() > 0 {
		switch {
		case policy == DuplicateSum && len(other.Columns) > 0:
			right = sumByDate(right, other.Columns)
		default:
			right = firstByDate(right)
		}
	}
	if right.Err != nil {
		return nil, fmt.Errorf("collapse %s dates: %w", other.Name, right.Err)
	}

	joined := base.Frame().LeftJoin(right, ColDate)
	columns := append(append([]string(nil), base.Columns...), other.Columns...)
	return frameToTable(base.Name, joined, columns)
}

// Assemble joins temperature and events onto the aggregated ridership series.
// The result has one row per ridership date in ascending order and columns
// ridership, temperature, weather flags, then event columns.
func Assemble(ridership, temperature, eventTable *Table, policy DuplicatePolicy) (*Table, error) {
	joined, err := LeftJoin(ridership, temperature, DuplicateFirst)
	if err != nil {
		return nil, err
	}
	joined, err = LeftJoin(joined, eventTable, policy)
	if err != nil {
		return nil, err
	}
	joined.Name = "station"
	return joined, nil
}

// sumByDate groups df on the date column and sums columns. The result keeps
// the original column names; row order is unspecified.
func sumByDate(df dataframe.DataFrame, columns []string) dataframe.DataFrame {
	types := make([]dataframe.AggregationType, len(columns))
	for i := range types {
		types[i] = dataframe.Aggregation_SUM
	}
	summed := df.GroupBy(ColDate).Aggregation(types, columns)
	for _, c := range columns {
		summed = summed.Rename(c, fmt.Sprintf("%s_%s", c, dataframe.Aggregation_SUM))
	}
	return summed
}

// firstByDate keeps the first row of every date.
func firstByDate(df dataframe.DataFrame) dataframe.DataFrame {
	seen := make(map[string]bool)
	var first []int
	for i, d := range df.Col(ColDate).Records() {
		if !seen[d] {
			seen[d] = true
			first = append(first, i)
		}
	}
	return df.Subset(first)
}
