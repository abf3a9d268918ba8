package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"ridership/internal/dataset"
)

// Derived column names.
const (
	ColYear          = "year"
	ColDayOfYear     = "day_of_year"
	ColP2Temperature = "p2_temperature"
)

// Matrix is the design matrix of one station with its target and the full
// output table it was cut from.
type Matrix struct {
	// Table holds ridership, the assembled columns, year and every feature.
	Table    *dataset.Table
	Features []string
	X        *mat.Dense
	Target   []float64
}

// Rows returns the number of observations.
func (m *Matrix) Rows() int {
	return len(m.Target)
}

// Build derives the features of an assembled station table. The table must
// carry the ridership and temperature columns.
func Build(t *dataset.Table) (*Matrix, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("cannot build features from an empty table")
	}
	target, ok := t.Column(dataset.ColRidership)
	if !ok {
		return nil, fmt.Errorf("table has no %s column", dataset.ColRidership)
	}
	temperature, ok := t.Column(dataset.ColTemperature)
	if !ok {
		return nil, fmt.Errorf("table has no %s column", dataset.ColTemperature)
	}

	n := t.Len()
	cals := make([]Calendar, n)
	for r, d := range t.Dates {
		cals[r] = CalendarOf(d)
	}

	out := &dataset.Table{Name: t.Name, Dates: append(t.Dates[:0:0], t.Dates...)}
	add := func(name string, values []float64) {
		out.Columns = append(out.Columns, name)
		out.Values = append(out.Values, values)
	}

	for c, name := range t.Columns {
		add(name, fillNaN(t.Values[c]))
	}

	year := make([]float64, n)
	dayOfYear := make([]float64, n)
	p2Temperature := make([]float64, n)
	months := make([]int, n)
	weeks := make([]int, n)
	p2Weeks := make([]int, n)
	for r, cal := range cals {
		year[r] = float64(cal.Year)
		dayOfYear[r] = float64(cal.DayOfYear)
		p2Temperature[r] = fillZero(temperature[r] * temperature[r])
		months[r] = cal.Month
		weeks[r] = cal.Week
		p2Weeks[r] = cal.Week * cal.Week
	}
	add(ColYear, year)
	add(ColDayOfYear, dayOfYear)
	add(ColP2Temperature, p2Temperature)

	dow := make([][]float64, 7)
	for i := range dow {
		dow[i] = make([]float64, n)
	}
	for r, cal := range cals {
		dow[cal.DayOfWeek][r] = 1
	}
	for i := 0; i < 7; i++ {
		add(fmt.Sprintf("day_of_week_%d", i), dow[i])
	}
	for i := 0; i < 7; i++ {
		interaction := make([]float64, n)
		for r, cal := range cals {
			interaction[r] = dow[i][r] * float64(cal.Week)
		}
		add(fmt.Sprintf("day_of_week_%d_week", i), interaction)
	}

	for _, cat := range []struct {
		prefix string
		values []int
	}{
		{"month", months},
		{"week", weeks},
		{"p2_week", p2Weeks},
	} {
		names, cols := OneHot(cat.prefix, cat.values)
		for i := range names {
			add(names[i], cols[i])
		}
	}

	features := make([]string, 0, len(out.Columns))
	featureIdx := make([]int, 0, len(out.Columns))
	for c, name := range out.Columns {
		if name == dataset.ColRidership || name == ColYear {
			continue
		}
		features = append(features, name)
		featureIdx = append(featureIdx, c)
	}

	x := mat.NewDense(n, len(features), nil)
	for j, c := range featureIdx {
		x.SetCol(j, out.Values[c])
	}

	return &Matrix{
		Table:    out,
		Features: features,
		X:        x,
		Target:   append([]float64(nil), target...),
	}, nil
}

// OneHot returns one indicator column per distinct value, in ascending value
// order, named <prefix>_<value>.
func OneHot(prefix string, values []int) ([]string, [][]float64) {
	distinct := make(map[int]bool)
	for _, v := range values {
		distinct[v] = true
	}
	levels := make([]int, 0, len(distinct))
	for v := range distinct {
		levels = append(levels, v)
	}
	sort.Ints(levels)

	names := make([]string, len(levels))
	cols := make([][]float64, len(levels))
	pos := make(map[int]int, len(levels))
	for i, v := range levels {
		names[i] = fmt.Sprintf("%s_%d", prefix, v)
		cols[i] = make([]float64, len(values))
		pos[v] = i
	}
	for r, v := range values {
		cols[pos[v]][r] = 1
	}
	return names, cols
}

// FeatureIndex returns the X column of each named feature. Names that are not
// features are reported in missing.
func (m *Matrix) FeatureIndex(names []string) (idx []int, missing []string) {
	pos := make(map[string]int, len(m.Features))
	for i, f := range m.Features {
		pos[f] = i
	}
	for _, n := range names {
		if i, ok := pos[n]; ok {
			idx = append(idx, i)
		} else {
			missing = append(missing, n)
		}
	}
	return idx, missing
}

func fillNaN(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = fillZero(v)
	}
	return out
}

func fillZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
