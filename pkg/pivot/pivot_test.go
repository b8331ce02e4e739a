package pivot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/merx/pkg/series"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newSeries(t *testing.T, values ...float64) *series.Series {
	t.Helper()
	s, err := series.Regular(start, 24*time.Hour, values)
	require.NoError(t, err)
	return s
}

func TestStandard(t *testing.T) {
	high := newSeries(t, 12, 20)
	low := newSeries(t, 8, 14)
	close := newSeries(t, 10, 17)

	table, err := Standard(high, low, close)
	require.NoError(t, err)
	assert.Equal(t, []string{"pivot", "support_1", "support_2", "resistance_1", "resistance_2"}, table.Columns())
	assert.Equal(t, close.Index(), table.Index())

	tests := []struct {
		column string
		want   [2]float64
	}{
		{column: ColumnPivot, want: [2]float64{10, 17}},
		{column: Support(1), want: [2]float64{8, 14}},
		{column: Support(2), want: [2]float64{6, 11}},
		{column: Resistance(1), want: [2]float64{12, 20}},
		{column: Resistance(2), want: [2]float64{14, 23}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			for i, want := range tt.want {
				got, ok := table.At(i, tt.column)
				require.True(t, ok, "row %d", i)
				assert.InDelta(t, want, got, 1e-9, "row %d", i)
			}
		})
	}
}

func TestFibonacci(t *testing.T) {
	high := newSeries(t, 12)
	low := newSeries(t, 8)
	close := newSeries(t, 10)

	table, err := Fibonacci(high, low, close)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pivot", "support_1", "support_2", "support_3", "resistance_1", "resistance_2", "resistance_3",
	}, table.Columns())

	expected := map[string]float64{
		ColumnPivot:   10,
		Support(1):    10 - 0.382*4,
		Support(2):    10 - 0.618*4,
		Support(3):    6,
		Resistance(1): 10 + 0.382*4,
		Resistance(2): 10 + 0.618*4,
		Resistance(3): 14,
	}
	for column, want := range expected {
		got, ok := table.At(0, column)
		require.True(t, ok, column)
		assert.InDelta(t, want, got, 1e-9, column)
	}
}

func TestPivot_UndefinedBar(t *testing.T) {
	high := newSeries(t, 12, math.NaN(), 14)
	low := newSeries(t, 8, 9, 10)
	close := newSeries(t, 10, 10, 12)

	table, err := Standard(high, low, close)
	require.NoError(t, err)

	_, ok := table.At(1, ColumnPivot)
	assert.False(t, ok)
	_, ok = table.At(1, Resistance(1))
	assert.False(t, ok)

	v, ok := table.At(2, ColumnPivot)
	require.True(t, ok)
	assert.InDelta(t, 12.0, v, 1e-9)
}

func TestPivot_Misaligned(t *testing.T) {
	high := newSeries(t, 12, 13)
	low := newSeries(t, 8, 9)
	close, err := series.Regular(start.Add(time.Hour), 24*time.Hour, []float64{10, 11})
	require.NoError(t, err)

	_, err = Standard(high, low, close)
	assert.ErrorIs(t, err, series.ErrMisalignedInputs)
	_, err = Fibonacci(high, low.Slice(0, 1), newSeries(t, 10, 11))
	assert.ErrorIs(t, err, series.ErrMisalignedInputs)
}
