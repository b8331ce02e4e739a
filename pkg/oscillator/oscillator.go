// Package oscillator provides momentum and volatility measures derived from price series:
// RSI, MACD, True Range, Average True Range, Efficiency Ratio and Chandelier Exit.
package oscillator

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/pkg/overlay"
	"github.com/vadiminshakov/merx/pkg/series"
)

// MACD column names.
const (
	ColumnMACD      = "macd"
	ColumnSignal    = "signal"
	ColumnHistogram = "histogram"
)

// RSI calculates the Relative Strength Index. Up and down moves are smoothed with the
// exponential recurrence at span 2·period−1 and a warm-up of period observations.
// When smoothed downward movement is zero the index is 100.
func RSI(close *series.Series, period int) (*series.Series, error) {
	if period <= 0 {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "rsi period %d", period)
	}
	if close.Len() <= period {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "rsi period %d needs at least %d bars, got %d",
			period, period+1, close.Len())
	}

	delta := close.Diff(1)
	up := delta.Map(func(v float64) float64 { return math.Max(v, 0) })
	down := delta.Map(func(v float64) float64 { return math.Max(-v, 0) })

	span := float64(2*period - 1)
	avgUp, err := up.EWM(span, period)
	if err != nil {
		return nil, errors.Wrap(err, "rsi")
	}
	avgDown, err := down.EWM(span, period)
	if err != nil {
		return nil, errors.Wrap(err, "rsi")
	}

	return series.Combine(avgUp, avgDown, func(u, d float64) (float64, bool) {
		if d == 0 {
			return 100, true
		}
		return 100 - 100/(1+u/d), true
	}), nil
}

// MACD calculates the MACD line (fast EMA − slow EMA), its signal line (EMA of the MACD line
// over period) and the histogram (MACD − signal). The MACD line stays undefined until the slow
// EMA has seen slow bars.
func MACD(close *series.Series, slow, fast, period int) (*series.Table, error) {
	if slow <= 0 || fast <= 0 || period <= 0 {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "macd periods slow=%d fast=%d signal=%d", slow, fast, period)
	}
	if fast >= slow {
		return nil, errors.Wrapf(series.ErrInvalidParameter, "macd fast period %d must be shorter than slow period %d", fast, slow)
	}

	fastEMA, err := overlay.EMA(close, fast)
	if err != nil {
		return nil, errors.Wrap(err, "macd")
	}
	slowEMA, err := overlay.EMA(close, slow)
	if err != nil {
		return nil, errors.Wrap(err, "macd")
	}

	line := fastEMA.Sub(slowEMA).MaskHead(slow - 1)
	signal, err := overlay.EMA(line, period)
	if err != nil {
		return nil, errors.Wrap(err, "macd signal")
	}

	return series.NewTable(
		series.Column{Name: ColumnMACD, Series: line},
		series.Column{Name: ColumnSignal, Series: signal},
		series.Column{Name: ColumnHistogram, Series: line.Sub(signal)},
	)
}
