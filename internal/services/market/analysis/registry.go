// Package analysis runs batches of named indicators over OHLCV tables on a bounded worker pool.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/pkg/oscillator"
	"github.com/vadiminshakov/merx/pkg/overlay"
	"github.com/vadiminshakov/merx/pkg/pivot"
	"github.com/vadiminshakov/merx/pkg/series"
)

// ErrUnknownIndicator is returned for a name missing from the registry.
var ErrUnknownIndicator = errors.New("unknown indicator")

// Spec names an indicator and its parameters. Zero values take the indicator's defaults.
type Spec struct {
	Name       string
	Period     int
	Slow       int
	Fast       int
	Signal     int
	Multiplier float64
	StdDev     series.StdDev
	// MA is the moving average an envelope is built around.
	MA string
	// Source is the OHLCV column single-input indicators read.
	Source string
}

// Label renders s for logs and table headers, e.g. "macd(26,12,9)".
func (s Spec) Label() string {
	switch s.Name {
	case "macd":
		return fmt.Sprintf("macd(%d,%d,%d)", s.Slow, s.Fast, s.Signal)
	case "bollinger":
		return fmt.Sprintf("bollinger(%d,%g,%s)", s.Period, s.Multiplier, s.StdDev)
	case "envelope":
		return fmt.Sprintf("envelope(%s,%d,%g)", s.MA, s.Period, s.Multiplier)
	case "chandelier":
		return fmt.Sprintf("chandelier(%d,%g)", s.Period, s.Multiplier)
	case "tr", "pivot_standard", "pivot_fibonacci":
		return s.Name
	default:
		return fmt.Sprintf("%s(%d)", s.Name, s.Period)
	}
}

type indicator struct {
	// periodless indicators reject Spec.Period.
	periodless bool
	defaults   func(*Spec)
	compute  func(ohlcv *series.Table, spec Spec) (*series.Table, error)
}

func period(p int) func(*Spec) {
	return func(s *Spec) {
		if s.Period == 0 {
			s.Period = p
		}
	}
}

// single wraps a one-series indicator reading spec.Source.
func single(fn func(*series.Series, int) (*series.Series, error)) func(*series.Table, Spec) (*series.Table, error) {
	return func(ohlcv *series.Table, spec Spec) (*series.Table, error) {
		src, err := column(ohlcv, spec.Source)
		if err != nil {
			return nil, err
		}
		out, err := fn(src, spec.Period)
		if err != nil {
			return nil, err
		}
		return series.NewTable(series.Column{Name: spec.Name, Series: out})
	}
}

// hlc wraps an indicator reading the high, low and close columns.
func hlc(fn func(high, low, close *series.Series, spec Spec) (*series.Table, error)) func(*series.Table, Spec) (*series.Table, error) {
	return func(ohlcv *series.Table, spec Spec) (*series.Table, error) {
		high, err := column(ohlcv, domain.ColumnHigh)
		if err != nil {
			return nil, err
		}
		low, err := column(ohlcv, domain.ColumnLow)
		if err != nil {
			return nil, err
		}
		close, err := column(ohlcv, domain.ColumnClose)
		if err != nil {
			return nil, err
		}
		return fn(high, low, close, spec)
	}
}

func column(ohlcv *series.Table, name string) (*series.Series, error) {
	s, ok := ohlcv.Column(name)
	if !ok {
		return nil, errors.Wrapf(series.ErrInvalidParameter, "input has no %q column", name)
	}
	return s, nil
}

func named(name string, s *series.Series, err error) (*series.Table, error) {
	if err != nil {
		return nil, err
	}
	return series.NewTable(series.Column{Name: name, Series: s})
}

var movingAverages = map[string]func(*series.Series, int) (*series.Series, error){
	"sma":  overlay.SMA,
	"ema":  overlay.EMA,
	"wma":  overlay.WMA,
	"dema": overlay.DEMA,
	"tema": overlay.TEMA,
	"hma":  overlay.HMA,
}

var registry = map[string]indicator{
	"sma":  {defaults: period(20), compute: single(overlay.SMA)},
	"ema":  {defaults: period(20), compute: single(overlay.EMA)},
	"wma":  {defaults: period(20), compute: single(overlay.WMA)},
	"dema": {defaults: period(20), compute: single(overlay.DEMA)},
	"tema": {defaults: period(20), compute: single(overlay.TEMA)},
	"hma":  {defaults: period(16), compute: single(overlay.HMA)},
	"rsi":  {defaults: period(14), compute: single(oscillator.RSI)},
	"er":   {defaults: period(oscillator.EfficiencyLookback), compute: single(oscillator.EfficiencyRatioN)},
	"bollinger": {
		defaults: func(s *Spec) {
			period(20)(s)
			if s.Multiplier == 0 {
				s.Multiplier = 2
			}
		},
		compute: func(ohlcv *series.Table, spec Spec) (*series.Table, error) {
			src, err := column(ohlcv, spec.Source)
			if err != nil {
				return nil, err
			}
			return overlay.BollingerBands(src, spec.Period,
				overlay.WithMultiplier(spec.Multiplier), overlay.WithStdDev(spec.StdDev))
		},
	},
	"envelope": {
		defaults: func(s *Spec) {
			period(20)(s)
			if s.Multiplier == 0 {
				s.Multiplier = 0.025
			}
			if s.MA == "" {
				s.MA = "sma"
			}
		},
		compute: func(ohlcv *series.Table, spec Spec) (*series.Table, error) {
			ma, ok := movingAverages[spec.MA]
			if !ok {
				return nil, errors.Wrapf(series.ErrInvalidParameter, "envelope moving average %q", spec.MA)
			}
			src, err := column(ohlcv, spec.Source)
			if err != nil {
				return nil, err
			}
			avg, err := ma(src, spec.Period)
			if err != nil {
				return nil, err
			}
			return overlay.Envelope(avg, spec.Multiplier)
		},
	},
	"macd": {
		periodless: true,
		defaults: func(s *Spec) {
			if s.Slow == 0 {
				s.Slow = 26
			}
			if s.Fast == 0 {
				s.Fast = 12
			}
			if s.Signal == 0 {
				s.Signal = 9
			}
		},
		compute: func(ohlcv *series.Table, spec Spec) (*series.Table, error) {
			src, err := column(ohlcv, spec.Source)
			if err != nil {
				return nil, err
			}
			return oscillator.MACD(src, spec.Slow, spec.Fast, spec.Signal)
		},
	},
	"tr": {
		periodless: true,
		defaults:   func(*Spec) {},
		compute: hlc(func(high, low, close *series.Series, spec Spec) (*series.Table, error) {
			tr, err := oscillator.TrueRange(high, low, close)
			return named(spec.Name, tr, err)
		}),
	},
	"atr": {
		defaults: period(14),
		compute: hlc(func(high, low, close *series.Series, spec Spec) (*series.Table, error) {
			atr, err := oscillator.ATR(high, low, close, spec.Period)
			return named(spec.Name, atr, err)
		}),
	},
	"chandelier": {
		defaults: func(s *Spec) {
			period(oscillator.ChandelierLookback)(s)
			if s.Multiplier == 0 {
				s.Multiplier = oscillator.ChandelierMultiplier
			}
		},
		compute: hlc(func(high, low, close *series.Series, spec Spec) (*series.Table, error) {
			return oscillator.ChandelierExitWith(high, low, close, spec.Period, spec.Multiplier)
		}),
	},
	"pivot_standard": {
		periodless: true,
		defaults:   func(*Spec) {},
		compute: hlc(func(high, low, close *series.Series, _ Spec) (*series.Table, error) {
			return pivot.Standard(high, low, close)
		}),
	},
	"pivot_fibonacci": {
		periodless: true,
		defaults:   func(*Spec) {},
		compute: hlc(func(high, low, close *series.Series, _ Spec) (*series.Table, error) {
			return pivot.Fibonacci(high, low, close)
		}),
	},
}

// Names lists the registered indicators in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve normalises the name, fills defaults and checks that spec.Name is a registered indicator.
// A period given to an indicator that takes none is rejected; other parameter ranges are checked
// by the indicator itself when it runs.
func Resolve(spec Spec) (Spec, error) {
	spec.Name = strings.ToLower(strings.TrimSpace(spec.Name))
	ind, ok := registry[spec.Name]
	if !ok {
		return spec, errors.Wrapf(ErrUnknownIndicator, "%q (known: %s)", spec.Name, strings.Join(Names(), ", "))
	}
	if ind.periodless && spec.Period != 0 {
		return spec, errors.Wrapf(series.ErrInvalidParameter, "%s takes no period, got %d", spec.Name, spec.Period)
	}
	if spec.Source == "" {
		spec.Source = domain.ColumnClose
	}
	spec.MA = strings.ToLower(spec.MA)
	ind.defaults(&spec)
	return spec, nil
}

// Compute runs one indicator over an OHLCV table.
func Compute(ohlcv *series.Table, spec Spec) (*series.Table, error) {
	spec, err := Resolve(spec)
	if err != nil {
		return nil, err
	}
	out, err := registry[spec.Name].compute(ohlcv, spec)
	if err != nil {
		return nil, errors.Wrap(err, spec.Label())
	}
	return out, nil
}
