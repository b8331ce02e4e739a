package overlay

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/pkg/series"
)

const defaultBandMultiplier = 2.0

// Band column names.
const (
	ColumnUpper = "upper"
	ColumnLower = "lower"
)

type bandConfig struct {
	multiplier float64
	stddev     series.StdDev
}

// BandOption configures BollingerBands.
type BandOption func(*bandConfig)

// WithMultiplier sets how many standard deviations the bands sit from the average.
func WithMultiplier(k float64) BandOption {
	return func(c *bandConfig) {
		c.multiplier = k
	}
}

// WithStdDev selects the standard deviation denominator.
func WithStdDev(d series.StdDev) BandOption {
	return func(c *bandConfig) {
		c.stddev = d
	}
}

// BollingerBands calculates upper and lower bands at sma ± k·std over period.
// By default k is 2 and the standard deviation is the sample (n-1) deviation.
func BollingerBands(close *series.Series, period int, opts ...BandOption) (*series.Table, error) {
	cfg := bandConfig{
		multiplier: defaultBandMultiplier,
		stddev:     series.Sample,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validMultiplier(cfg.multiplier); err != nil {
		return nil, errors.Wrap(err, "bollinger bands")
	}

	sma, err := SMA(close, period)
	if err != nil {
		return nil, errors.Wrap(err, "bollinger bands")
	}
	std, err := close.RollingStd(period, cfg.stddev)
	if err != nil {
		return nil, errors.Wrap(err, "bollinger bands")
	}

	width := std.MulScalar(cfg.multiplier)
	return series.NewTable(
		series.Column{Name: ColumnUpper, Series: sma.Add(width)},
		series.Column{Name: ColumnLower, Series: sma.Sub(width)},
	)
}

// Envelope calculates bands a fixed fraction above and below a moving average:
// ma·(1+multiplier) and ma·(1−multiplier).
func Envelope(ma *series.Series, multiplier float64) (*series.Table, error) {
	if err := validMultiplier(multiplier); err != nil {
		return nil, errors.Wrap(err, "ma envelope")
	}
	return series.NewTable(
		series.Column{Name: ColumnUpper, Series: ma.MulScalar(1 + multiplier)},
		series.Column{Name: ColumnLower, Series: ma.MulScalar(1 - multiplier)},
	)
}

func validMultiplier(k float64) error {
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return errors.Wrapf(series.ErrInvalidParameter, "multiplier %v must be a non-negative number", k)
	}
	return nil
}
