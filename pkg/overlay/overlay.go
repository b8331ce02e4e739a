// Package overlay provides price-aligned smoothing functions (SMA, EMA, WMA, DEMA, TEMA, HMA)
// and the band constructions built on them (Bollinger Bands, moving average envelope).
//
// Every function is pure: it reads complete input series and returns new ones on the input's
// time index, with undefined values in the warm-up region.
package overlay

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/pkg/series"
)

// SMA calculates the Simple Moving Average for the given period.
func SMA(close *series.Series, period int) (*series.Series, error) {
	sma, err := close.RollingMean(period)
	if err != nil {
		return nil, errors.Wrap(err, "sma")
	}
	return sma, nil
}

// EMA calculates the span-based Exponential Moving Average for the given period.
// It emits from the first observation, there is no warm-up beyond one bar.
func EMA(close *series.Series, period int) (*series.Series, error) {
	if period <= 0 {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "ema period %d", period)
	}
	ema, err := close.EWM(float64(period), 1)
	if err != nil {
		return nil, errors.Wrap(err, "ema")
	}
	return ema, nil
}

// WMA calculates the linearly Weighted Moving Average: the oldest value in the window has
// weight 1 and the newest has weight period.
func WMA(close *series.Series, period int) (*series.Series, error) {
	norm := float64(period) * float64(period+1) / 2
	wma, err := close.Rolling(period, func(w []float64) (float64, bool) {
		var total float64
		for i, v := range w {
			total += float64(i+1) * v
		}
		return total / norm, true
	})
	if err != nil {
		return nil, errors.Wrap(err, "wma")
	}
	return wma, nil
}

// DEMA calculates the Double Exponential Moving Average: 2·ema1 − ema2.
func DEMA(close *series.Series, period int) (*series.Series, error) {
	cascade, err := emaCascade(close, period, 2)
	if err != nil {
		return nil, errors.Wrap(err, "dema")
	}
	return cascade[0].MulScalar(2).Sub(cascade[1]), nil
}

// TEMA calculates the Triple Exponential Moving Average: 3·ema1 − 3·ema2 + ema3.
func TEMA(close *series.Series, period int) (*series.Series, error) {
	cascade, err := emaCascade(close, period, 3)
	if err != nil {
		return nil, errors.Wrap(err, "tema")
	}
	return cascade[0].MulScalar(3).Sub(cascade[1].MulScalar(3)).Add(cascade[2]), nil
}

// emaCascade returns ema1 = EMA(close), ema2 = EMA(ema1), ... up to depth passes.
func emaCascade(close *series.Series, period, depth int) ([]*series.Series, error) {
	out := make([]*series.Series, 0, depth)
	src := close
	for i := 0; i < depth; i++ {
		ema, err := EMA(src, period)
		if err != nil {
			return nil, err
		}
		out = append(out, ema)
		src = ema
	}
	return out, nil
}

// HMA calculates the Hull Moving Average:
// WMA(2·WMA(close, round(period/2)) − WMA(close, period), round(sqrt(period))).
// Both derived periods are rounded half to even.
func HMA(close *series.Series, period int) (*series.Series, error) {
	half, root := HullPeriods(period)
	if period <= 0 || half <= 0 || root <= 0 {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "hma period %d must be at least 2", period)
	}
	// the final smoothing needs root values of the raw series, which starts at bar period
	if need := period + root - 1; close.Len() < need {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "hma period %d needs at least %d bars, got %d", period, need, close.Len())
	}

	halfWMA, err := WMA(close, half)
	if err != nil {
		return nil, errors.Wrap(err, "hma")
	}
	fullWMA, err := WMA(close, period)
	if err != nil {
		return nil, errors.Wrap(err, "hma")
	}

	raw := halfWMA.MulScalar(2).Sub(fullWMA)
	hma, err := WMA(raw, root)
	if err != nil {
		return nil, errors.Wrap(err, "hma")
	}
	return hma, nil
}

// HullPeriods returns the half and square-root windows HMA derives from period.
func HullPeriods(period int) (half, root int) {
	if period <= 0 {
		return 0, 0
	}
	return int(math.RoundToEven(float64(period) / 2)), int(math.RoundToEven(math.Sqrt(float64(period))))
}
