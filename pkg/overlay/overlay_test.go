package overlay

import (
	"math"
	"testing"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/merx/pkg/series"
)

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newSeries(t *testing.T, values ...float64) *series.Series {
	t.Helper()
	s, err := series.Regular(start, 24*time.Hour, values)
	require.NoError(t, err)
	return s
}

func assertValues(t *testing.T, expected []float64, s *series.Series) {
	t.Helper()
	require.Equal(t, len(expected), s.Len(), "length mismatch")
	for i, want := range expected {
		got, ok := s.At(i)
		if math.IsNaN(want) {
			assert.False(t, ok, "expected undefined at index %d, got %v", i, got)
			continue
		}
		require.True(t, ok, "expected defined value at index %d", i)
		assert.InDelta(t, want, got, 1e-9, "mismatch at index %d", i)
	}
}

func TestSMA(t *testing.T) {
	nan := math.NaN()
	close := newSeries(t, 10, 11, 12, 11, 10, 9, 10, 11, 12, 13)

	sma, err := SMA(close, 3)
	require.NoError(t, err)

	assert.False(t, sma.Defined(0))
	assert.False(t, sma.Defined(1))
	v, ok := sma.At(2)
	require.True(t, ok)
	assert.Equal(t, 11.0, v)
	assertValues(t, []float64{nan, nan, 11, 34.0 / 3, 11, 10, 29.0 / 3, 10, 11, 12}, sma)
	assert.Equal(t, close.Index(), sma.Index())

	for _, period := range []int{1, 2, 5, 10} {
		sma, err := SMA(close, period)
		require.NoError(t, err)
		for i := 0; i < close.Len(); i++ {
			if i < period-1 {
				assert.False(t, sma.Defined(i), "period %d index %d", period, i)
				continue
			}
			w, ok := close.Window(i, period)
			require.True(t, ok)
			var total float64
			for _, x := range w {
				total += x
			}
			got, _ := sma.At(i)
			assert.InDelta(t, total/float64(period), got, 1e-12)
		}
	}
}

func TestSMA_MatchesReference(t *testing.T) {
	prices := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28}
	period := 5

	sma, err := SMA(newSeries(t, prices...), period)
	require.NoError(t, err)

	ref := trend.NewSmaWithPeriod[float64](period)
	expected := helper.ChanToSlice(ref.Compute(helper.SliceToChan(prices)))
	require.Len(t, expected, len(prices)-period+1)

	for i, want := range expected {
		got, ok := sma.At(i + period - 1)
		require.True(t, ok)
		assert.InDelta(t, want, got, 1e-9, "index %d", i+period-1)
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	close := newSeries(t, 1, 2, 3)
	for _, period := range []int{0, -1, 4} {
		_, err := SMA(close, period)
		assert.ErrorIs(t, err, series.ErrInvalidPeriod, "period %d", period)
	}
}

func TestEMA(t *testing.T) {
	t.Run("recurrence with span alpha", func(t *testing.T) {
		ema, err := EMA(newSeries(t, 1, 2, 3, 4), 3)
		require.NoError(t, err)
		assertValues(t, []float64{1, 1.5, 2.25, 3.125}, ema)
	})

	t.Run("constant input stays constant and defined", func(t *testing.T) {
		close := newSeries(t, 7, 7, 7, 7, 7, 7, 7)
		for _, period := range []int{1, 3, 20} {
			ema, err := EMA(close, period)
			require.NoError(t, err)
			for i := 0; i < ema.Len(); i++ {
				v, ok := ema.At(i)
				require.True(t, ok, "period %d index %d", period, i)
				assert.InDelta(t, 7.0, v, 1e-12)
			}
		}
	})

	t.Run("period longer than input still emits", func(t *testing.T) {
		ema, err := EMA(newSeries(t, 1, 2), 50)
		require.NoError(t, err)
		assert.True(t, ema.Defined(0))
		assert.True(t, ema.Defined(1))
	})

	t.Run("non-positive period", func(t *testing.T) {
		_, err := EMA(newSeries(t, 1, 2), 0)
		assert.ErrorIs(t, err, series.ErrInvalidPeriod)
	})
}

func TestDEMAAndTEMA(t *testing.T) {
	close := newSeries(t, 1, 2, 3, 4)

	dema, err := DEMA(close, 3)
	require.NoError(t, err)
	assertValues(t, []float64{1, 1.75, 2.75, 3.8125}, dema)

	tema, err := TEMA(close, 3)
	require.NoError(t, err)
	assertValues(t, []float64{1, 1.875, 2.9375, 4.0}, tema)

	t.Run("reduce to ema at period one", func(t *testing.T) {
		prices := newSeries(t, 3, 1, 4, 1, 5, 9, 2, 6)
		ema, err := EMA(prices, 1)
		require.NoError(t, err)
		dema, err := DEMA(prices, 1)
		require.NoError(t, err)
		tema, err := TEMA(prices, 1)
		require.NoError(t, err)
		assertValues(t, ema.Floats(), dema)
		assertValues(t, ema.Floats(), tema)
	})

	_, err = DEMA(close, 0)
	assert.ErrorIs(t, err, series.ErrInvalidPeriod)
	_, err = TEMA(close, -2)
	assert.ErrorIs(t, err, series.ErrInvalidPeriod)
}

func TestWMA(t *testing.T) {
	nan := math.NaN()
	wma, err := WMA(newSeries(t, 1, 2, 3, 4), 3)
	require.NoError(t, err)
	assertValues(t, []float64{nan, nan, 14.0 / 6, 20.0 / 6}, wma)

	_, err = WMA(newSeries(t, 1, 2), 3)
	assert.ErrorIs(t, err, series.ErrInvalidPeriod)
}

func TestHMA(t *testing.T) {
	nan := math.NaN()

	t.Run("linear input has no lag", func(t *testing.T) {
		hma, err := HMA(newSeries(t, 1, 2, 3, 4, 5, 6), 4)
		require.NoError(t, err)
		assertValues(t, []float64{nan, nan, nan, nan, 5, 6}, hma)
	})

	t.Run("periods round half to even", func(t *testing.T) {
		tests := []struct {
			period, half, root int
		}{
			{period: 2, half: 1, root: 1},
			{period: 4, half: 2, root: 2},
			{period: 5, half: 2, root: 2},
			{period: 7, half: 4, root: 3},
			{period: 9, half: 4, root: 3},
			{period: 16, half: 8, root: 4},
		}
		for _, tt := range tests {
			half, root := HullPeriods(tt.period)
			assert.Equal(t, tt.half, half, "half of %d", tt.period)
			assert.Equal(t, tt.root, root, "root of %d", tt.period)
		}
	})

	t.Run("input shorter than both windows", func(t *testing.T) {
		ramp := func(n int) *series.Series {
			values := make([]float64, n)
			for i := range values {
				values[i] = float64(i + 1)
			}
			return newSeries(t, values...)
		}

		for n := 16; n <= 18; n++ {
			_, err := HMA(ramp(n), 16)
			assert.ErrorIs(t, err, series.ErrInvalidPeriod, "%d bars", n)
		}

		hma, err := HMA(ramp(19), 16)
		require.NoError(t, err)
		assert.Equal(t, 18, hma.FirstDefined())
		v, ok := hma.At(18)
		require.True(t, ok)
		// weighted windows of 8, 16 and 4 lag a ramp by 7/3, 5 and 1
		assert.InDelta(t, 19-2.0/3, v, 1e-9)
	})

	t.Run("period one has no half window", func(t *testing.T) {
		_, err := HMA(newSeries(t, 1, 2, 3), 1)
		assert.ErrorIs(t, err, series.ErrInvalidPeriod)
	})
}

func TestBollingerBands(t *testing.T) {
	close := newSeries(t, 2, 4, 4, 4, 5, 5, 7, 9)

	t.Run("population deviation", func(t *testing.T) {
		bands, err := BollingerBands(close, 8, WithStdDev(series.Population))
		require.NoError(t, err)
		assert.Equal(t, []string{ColumnUpper, ColumnLower}, bands.Columns())

		upper, ok := bands.At(7, ColumnUpper)
		require.True(t, ok)
		assert.InDelta(t, 9.0, upper, 1e-12)
		lower, ok := bands.At(7, ColumnLower)
		require.True(t, ok)
		assert.InDelta(t, 1.0, lower, 1e-12)

		_, ok = bands.At(6, ColumnUpper)
		assert.False(t, ok)
	})

	t.Run("sample deviation with custom multiplier", func(t *testing.T) {
		bands, err := BollingerBands(close, 8, WithMultiplier(1))
		require.NoError(t, err)
		upper, ok := bands.At(7, ColumnUpper)
		require.True(t, ok)
		assert.InDelta(t, 5+math.Sqrt(32.0/7), upper, 1e-12)
	})

	t.Run("bands are symmetric around the sma", func(t *testing.T) {
		bands, err := BollingerBands(close, 3)
		require.NoError(t, err)
		sma, err := SMA(close, 3)
		require.NoError(t, err)
		upper, _ := bands.Column(ColumnUpper)
		lower, _ := bands.Column(ColumnLower)
		assertValues(t, sma.Floats(), upper.Add(lower).MulScalar(0.5))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := BollingerBands(close, 9)
		assert.ErrorIs(t, err, series.ErrInvalidPeriod)
		_, err = BollingerBands(close, 3, WithMultiplier(-1))
		assert.ErrorIs(t, err, series.ErrInvalidParameter)
	})

	t.Run("one bar window", func(t *testing.T) {
		_, err := BollingerBands(close, 1)
		assert.ErrorIs(t, err, series.ErrInvalidPeriod)

		bands, err := BollingerBands(close, 1, WithStdDev(series.Population))
		require.NoError(t, err)
		upper, _ := bands.Column(ColumnUpper)
		assertValues(t, close.Floats(), upper)
	})
}

func TestEnvelope(t *testing.T) {
	nan := math.NaN()
	sma, err := SMA(newSeries(t, 100, 102, 104, 106), 2)
	require.NoError(t, err)

	env, err := Envelope(sma, 0.05)
	require.NoError(t, err)

	upper, _ := env.Column(ColumnUpper)
	lower, _ := env.Column(ColumnLower)
	assertValues(t, []float64{nan, 106.05, 108.15, 110.25}, upper)
	assertValues(t, []float64{nan, 95.95, 97.85, 99.75}, lower)

	_, err = Envelope(sma, math.NaN())
	assert.ErrorIs(t, err, series.ErrInvalidParameter)
}
