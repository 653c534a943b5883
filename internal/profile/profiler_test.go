package profile

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteoval/internal/dataset"
	"meteoval/pkg/contracts/domain"
)

func numericTable(t *testing.T, name string, values ...float64) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable([]dataset.Column{
		{Name: name, Type: dataset.TypeFloat, Floats: values, Nulls: make([]bool, len(values))},
	})
	require.NoError(t, err)
	return table
}

func TestProfile_Describe(t *testing.T) {
	table := numericTable(t, "v", 1, 2, 3, 4, 5)
	p := NewProfiler(nil, Config{})

	report, err := p.Profile(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, report.Describe, 1)
	s := report.Describe[0]
	assert.Equal(t, "v", s.Column)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	// Sample standard deviation of 1..5.
	assert.InDelta(t, math.Sqrt(2.5), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 2.0, s.Q25, 1e-12)
	assert.InDelta(t, 3.0, s.Median, 1e-12)
	assert.InDelta(t, 4.0, s.Q75, 1e-12)
}

func TestProfile_Quantiles(t *testing.T) {
	table := numericTable(t, "v", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	p := NewProfiler(nil, Config{Quantiles: []float64{0.1, 0.5, 0.9}})

	report, err := p.Profile(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, report.Quantiles, 3)
	assert.Equal(t, 0.1, report.Quantiles[0].Q)
	assert.InDelta(t, 1.0, report.Quantiles[0].Values["v"], 1e-12)
	assert.InDelta(t, 5.0, report.Quantiles[1].Values["v"], 1e-12)
	assert.InDelta(t, 9.0, report.Quantiles[2].Values["v"], 1e-12)
}

func TestProfile_IgnoresNulls(t *testing.T) {
	table, err := dataset.NewTable([]dataset.Column{
		{Name: "v", Type: dataset.TypeFloat, Floats: []float64{1, 99, 3}, Nulls: []bool{false, true, false}},
	})
	require.NoError(t, err)

	report, err := NewProfiler(nil, Config{}).Profile(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Describe[0].Count)
	assert.InDelta(t, 2.0, report.Describe[0].Mean, 1e-12)
}

func TestProfile_NoNumericColumns(t *testing.T) {
	table, err := dataset.NewTable([]dataset.Column{
		{Name: "tag", Type: dataset.TypeString, Strings: []string{"a", "b"}, Nulls: []bool{false, false}},
	})
	require.NoError(t, err)

	report, err := NewProfiler(nil, Config{}).Profile(context.Background(), table)
	require.NoError(t, err)

	assert.Empty(t, report.NumericColumns)
	assert.Empty(t, report.Describe)
	assert.Empty(t, report.Quantiles)
	assert.Empty(t, report.RangeFlags)
}

func TestRangeFlags(t *testing.T) {
	p := NewProfiler(nil, Config{HighRangeQuantile: 0.95})

	stats := []domain.ColumnStats{
		{Column: "narrow", Min: 0, Max: 1},
		{Column: "mid", Min: 0, Max: 2},
		{Column: "wide", Min: 0, Max: 1000},
		{Column: "broken", Min: 5, Max: 2},
	}
	flags := p.rangeFlags(stats)
	require.Len(t, flags, 4)

	byColumn := make(map[string]domain.RangeFlag, len(flags))
	for _, f := range flags {
		byColumn[f.Column] = f
	}

	assert.True(t, byColumn["wide"].HighRange)
	assert.False(t, byColumn["narrow"].HighRange)
	assert.False(t, byColumn["mid"].HighRange)

	assert.True(t, byColumn["broken"].Inverted)
	assert.Equal(t, -3.0, byColumn["broken"].Range)
	assert.False(t, byColumn["narrow"].Inverted)
}

func TestDuplicateRows(t *testing.T) {
	table, err := dataset.NewTable([]dataset.Column{
		{Name: "a", Type: dataset.TypeInt, Ints: []int64{1, 2, 1, 1}, Nulls: make([]bool, 4)},
		{Name: "b", Type: dataset.TypeString, Strings: []string{"x", "y", "x", "z"}, Nulls: make([]bool, 4)},
	})
	require.NoError(t, err)

	report := NewProfiler(nil, Config{}).DuplicateRows(table)
	// Row 2 repeats row 0; row 3 differs in column b.
	assert.Equal(t, 1, report.DuplicateRows)
	assert.GreaterOrEqual(t, report.ElapsedSec, 0.0)
}

func TestSample(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	table := numericTable(t, "v", values...)

	t.Run("below threshold returns input", func(t *testing.T) {
		p := NewProfiler(nil, Config{SampleThreshold: 100})
		got, sampled, err := p.Sample(table)
		require.NoError(t, err)
		assert.False(t, sampled)
		assert.Same(t, table, got)
	})

	t.Run("above threshold samples deterministically", func(t *testing.T) {
		p := NewProfiler(nil, Config{SampleThreshold: 10, SampleSeed: 42})
		first, sampled, err := p.Sample(table)
		require.NoError(t, err)
		assert.True(t, sampled)
		assert.Equal(t, 10, first.NumRows())

		second, _, err := p.Sample(table)
		require.NoError(t, err)

		a, _ := first.Column("v")
		b, _ := second.Column("v")
		assert.Equal(t, a.Floats, b.Floats)

		// Row order is preserved, so sampled values stay ascending.
		for i := 1; i < len(a.Floats); i++ {
			assert.Less(t, a.Floats[i-1], a.Floats[i])
		}
	})
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		q      float64
		want   float64
	}{
		{name: "empty is NaN", sorted: nil, q: 0.5, want: math.NaN()},
		{name: "single value", sorted: []float64{7}, q: 0.99, want: 7},
		{name: "midpoint", sorted: []float64{1, 3}, q: 0.5, want: 2},
		{name: "upper edge", sorted: []float64{1, 2, 3}, q: 1.0, want: 3},
		{name: "lower edge", sorted: []float64{1, 2, 3}, q: 0.0, want: 1},
		{name: "between points", sorted: []float64{0, 10}, q: 0.25, want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interpolate(tt.sorted, tt.q)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
