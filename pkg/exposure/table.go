package exposure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// SamplingTable holds the uncertainty contribution c1*u1 of job-based sampling,
// indexed by number of samples and their standard deviation. Lookups clamp both
// axes to the table's range and interpolate bilinearly; nothing is extrapolated.
type SamplingTable struct {
	counts     []float64
	deviations []float64
	values     [][]float64
	rows       []interp.PiecewiseLinear
}

// NewSamplingTable validates and builds a table. values is indexed [count][deviation].
func NewSamplingTable(counts, deviations []float64, values [][]float64) (*SamplingTable, error) {
	if err := strictlyIncreasing("counts", counts); err != nil {
		return nil, err
	}
	if err := strictlyIncreasing("deviations", deviations); err != nil {
		return nil, err
	}
	if len(values) != len(counts) {
		return nil, fmt.Errorf("table has %d rows, expected %d", len(values), len(counts))
	}

	t := &SamplingTable{
		counts:     append([]float64(nil), counts...),
		deviations: append([]float64(nil), deviations...),
		values:     make([][]float64, len(values)),
		rows:       make([]interp.PiecewiseLinear, len(values)),
	}
	for i, row := range values {
		if len(row) != len(deviations) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(deviations))
		}
		t.values[i] = append([]float64(nil), row...)
		if err := t.rows[i].Fit(t.deviations, t.values[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return t, nil
}

func strictlyIncreasing(name string, xs []float64) error {
	if len(xs) < 2 {
		return fmt.Errorf("%s axis needs at least two points", name)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return fmt.Errorf("%s axis is not strictly increasing at index %d", name, i)
		}
	}
	return nil
}

// Lookup returns the interpolated c1*u1 for n samples with standard deviation u1.
func (t *SamplingTable) Lookup(n, u1 float64) float64 {
	n = clamp(n, t.counts[0], t.counts[len(t.counts)-1])
	u1 = clamp(u1, t.deviations[0], t.deviations[len(t.deviations)-1])

	column := make([]float64, len(t.rows))
	for i := range t.rows {
		column[i] = t.rows[i].Predict(u1)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(t.counts, column); err != nil {
		return math.NaN()
	}
	return pl.Predict(n)
}

// At returns the published value at row i, column j.
func (t *SamplingTable) At(i, j int) float64 {
	return t.values[i][j]
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return hi
	}
	return math.Max(lo, math.Min(hi, x))
}

// JobSamplingTable is ISO 9612 Table C.4.
var JobSamplingTable = mustSamplingTable(
	[]float64{5, 6, 7, 8, 9, 10, 12, 14, 16, 18, 20, 25, 30},
	[]float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.5, 6.0, 6.5, 7.0},
	[][]float64{
		{0.4, 0.9, 1.6, 2.4, 3.3, 4.4, 5.6, 7.0, 8.6, 10.3, 12.2, 14.3, 16.6, 19.1},
		{0.3, 0.8, 1.4, 2.0, 2.8, 3.7, 4.7, 5.8, 7.0, 8.3, 9.7, 11.3, 13.0, 14.8},
		{0.3, 0.7, 1.2, 1.8, 2.5, 3.2, 4.1, 5.0, 6.1, 7.2, 8.4, 9.7, 11.1, 12.6},
		{0.3, 0.6, 1.1, 1.6, 2.3, 2.9, 3.7, 4.5, 5.4, 6.4, 7.4, 8.6, 9.8, 11.1},
		{0.2, 0.6, 1.0, 1.5, 2.1, 2.7, 3.4, 4.1, 4.9, 5.8, 6.7, 7.8, 8.8, 10.0},
		{0.2, 0.5, 0.9, 1.4, 1.9, 2.5, 3.1, 3.8, 4.6, 5.4, 6.2, 7.1, 8.1, 9.2},
		{0.2, 0.5, 0.8, 1.3, 1.7, 2.2, 2.8, 3.4, 4.0, 4.7, 5.5, 6.2, 7.1, 8.0},
		{0.2, 0.4, 0.8, 1.2, 1.6, 2.0, 2.6, 3.1, 3.7, 4.3, 5.0, 5.7, 6.4, 7.2},
		{0.2, 0.4, 0.7, 1.1, 1.5, 1.9, 2.4, 2.9, 3.4, 4.0, 4.6, 5.2, 5.9, 6.6},
		{0.2, 0.4, 0.7, 1.0, 1.4, 1.8, 2.3, 2.7, 3.2, 3.8, 4.3, 4.9, 5.5, 6.2},
		{0.2, 0.4, 0.6, 1.0, 1.3, 1.7, 2.1, 2.6, 3.1, 3.6, 4.1, 4.6, 5.2, 5.8},
		{0.1, 0.3, 0.6, 0.9, 1.2, 1.5, 1.9, 2.3, 2.8, 3.2, 3.7, 4.1, 4.6, 5.1},
		{0.1, 0.3, 0.5, 0.8, 1.1, 1.4, 1.8, 2.1, 2.5, 2.9, 3.4, 3.8, 4.2, 4.7},
	},
)

func mustSamplingTable(counts, deviations []float64, values [][]float64) *SamplingTable {
	t, err := NewSamplingTable(counts, deviations, values)
	if err != nil {
		panic(err)
	}
	return t
}
