// Package pivot computes per-bar support and resistance levels. Every row depends only on its own
// bar, so the output has no warm-up region.
package pivot

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/pkg/series"
)

// ColumnPivot is the pivot point column shared by both methods.
const ColumnPivot = "pivot"

// FibonacciRatios are the range multiples used by Fibonacci pivots, innermost first.
var FibonacciRatios = [3]float64{0.382, 0.618, 1.0}

// Support returns the name of the k-th support column, starting at 1.
func Support(k int) string { return fmt.Sprintf("support_%d", k) }

// Resistance returns the name of the k-th resistance column, starting at 1.
func Resistance(k int) string { return fmt.Sprintf("resistance_%d", k) }

func inputs(high, low, close *series.Series) (pivot, width *series.Series, err error) {
	if err := series.Aligned(high, low, close); err != nil {
		return nil, nil, err
	}
	pivot = high.Add(low).Add(close).MulScalar(1.0 / 3)
	return pivot, high.Sub(low), nil
}

// Standard calculates classic floor pivots:
//
//	pivot        = (high + low + close) / 3
//	support_1    = 2·pivot − high
//	support_2    = pivot − (high − low)
//	resistance_1 = 2·pivot − low
//	resistance_2 = pivot + (high − low)
func Standard(high, low, close *series.Series) (*series.Table, error) {
	pivot, width, err := inputs(high, low, close)
	if err != nil {
		return nil, errors.Wrap(err, "standard pivot")
	}
	double := pivot.MulScalar(2)

	return series.NewTable(
		series.Column{Name: ColumnPivot, Series: pivot},
		series.Column{Name: Support(1), Series: double.Sub(high)},
		series.Column{Name: Support(2), Series: pivot.Sub(width)},
		series.Column{Name: Resistance(1), Series: double.Sub(low)},
		series.Column{Name: Resistance(2), Series: pivot.Add(width)},
	)
}

// Fibonacci calculates pivots whose levels sit at FibonacciRatios of the bar range
// on either side of the pivot point.
func Fibonacci(high, low, close *series.Series) (*series.Table, error) {
	pivot, width, err := inputs(high, low, close)
	if err != nil {
		return nil, errors.Wrap(err, "fibonacci pivot")
	}

	cols := []series.Column{{Name: ColumnPivot, Series: pivot}}
	for k, f := range FibonacciRatios {
		cols = append(cols, series.Column{Name: Support(k + 1), Series: pivot.Sub(width.MulScalar(f))})
	}
	for k, f := range FibonacciRatios {
		cols = append(cols, series.Column{Name: Resistance(k + 1), Series: pivot.Add(width.MulScalar(f))})
	}
	return series.NewTable(cols...)
}
