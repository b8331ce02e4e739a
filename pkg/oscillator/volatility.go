package oscillator

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/pkg/series"
)

const (
	// EfficiencyLookback is the fixed lookback of EfficiencyRatio.
	EfficiencyLookback = 10
	// ChandelierLookback is the fixed lookback of ChandelierExit.
	ChandelierLookback = 22
	// ChandelierMultiplier is the ATR multiple of ChandelierExit.
	ChandelierMultiplier = 3.0
)

// Chandelier column names.
const (
	ColumnLong  = "long"
	ColumnShort = "short"
)

// TrueRange calculates max(high−low, |high−prev close|, |low−prev close|).
// The first bar has no previous close, so the output starts at the second input timestamp.
func TrueRange(high, low, close *series.Series) (*series.Series, error) {
	if err := series.Aligned(high, low, close); err != nil {
		return nil, errors.Wrap(err, "true range")
	}
	if close.Len() < 2 {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "true range needs at least 2 bars, got %d", close.Len())
	}

	prev := close.Shift(1)
	tr := high.Sub(low).
		Max(high.Sub(prev).Abs()).
		Max(low.Sub(prev).Abs())

	return tr.Slice(1, tr.Len()), nil
}

// ATR calculates the Average True Range: the simple mean of TrueRange over period.
// The output shares TrueRange's index.
func ATR(high, low, close *series.Series, period int) (*series.Series, error) {
	tr, err := TrueRange(high, low, close)
	if err != nil {
		return nil, errors.Wrap(err, "atr")
	}
	atr, err := tr.RollingMean(period)
	if err != nil {
		return nil, errors.Wrap(err, "atr")
	}
	return atr, nil
}

// EfficiencyRatio calculates the directional efficiency of price over a 10 bar lookback.
func EfficiencyRatio(close *series.Series) (*series.Series, error) {
	return EfficiencyRatioN(close, EfficiencyLookback)
}

// EfficiencyRatioN calculates |close − close[lookback bars ago]| divided by the sum of absolute
// bar-to-bar changes over the same lookback. A window without movement is undefined.
func EfficiencyRatioN(close *series.Series, lookback int) (*series.Series, error) {
	if lookback <= 0 || close.Len() <= lookback {
		return nil, errors.Wrapf(series.ErrInvalidPeriod, "efficiency ratio lookback %d over %d bars", lookback, close.Len())
	}

	change := close.Diff(lookback).Abs()
	volatility, err := close.Diff(1).Abs().RollingSum(lookback)
	if err != nil {
		return nil, errors.Wrap(err, "efficiency ratio")
	}
	return change.Div(volatility), nil
}

// ChandelierExit calculates long and short exits over a 22 bar lookback at 3 ATRs:
// long = highest high − 3·ATR, short = lowest low + 3·ATR.
func ChandelierExit(high, low, close *series.Series) (*series.Table, error) {
	return ChandelierExitWith(high, low, close, ChandelierLookback, ChandelierMultiplier)
}

// ChandelierExitWith is ChandelierExit with an explicit lookback and ATR multiple.
func ChandelierExitWith(high, low, close *series.Series, lookback int, multiplier float64) (*series.Table, error) {
	if math.IsNaN(multiplier) || multiplier < 0 {
		return nil, errors.Wrapf(series.ErrInvalidParameter, "chandelier multiplier %v", multiplier)
	}

	atr, err := ATR(high, low, close, lookback)
	if err != nil {
		return nil, errors.Wrap(err, "chandelier exit")
	}
	highest, err := high.RollingMax(lookback)
	if err != nil {
		return nil, errors.Wrap(err, "chandelier exit")
	}
	lowest, err := low.RollingMin(lookback)
	if err != nil {
		return nil, errors.Wrap(err, "chandelier exit")
	}

	offset := atr.MulScalar(multiplier)
	return series.NewTable(
		series.Column{Name: ColumnLong, Series: highest.Sub(offset)},
		series.Column{Name: ColumnShort, Series: lowest.Add(offset)},
	)
}
