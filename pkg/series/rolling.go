package series

import (
	"math"

	"github.com/pkg/errors"
)

// StdDev selects the denominator of a standard deviation.
type StdDev int

const (
	// Sample divides by n-1.
	Sample StdDev = iota
	// Population divides by n.
	Population
)

// String returns the config name of the convention.
func (d StdDev) String() string {
	if d == Population {
		return "population"
	}
	return "sample"
}

// ParseStdDev parses "sample" or "population". An empty string selects Sample.
func ParseStdDev(s string) (StdDev, error) {
	switch s {
	case "", "sample":
		return Sample, nil
	case "population":
		return Population, nil
	default:
		return Sample, errors.Wrapf(ErrInvalidParameter, "unknown standard deviation %q", s)
	}
}

// Window returns the n values ending at position i. The second result is false
// when fewer than n observations exist or any of them is undefined.
func (s *Series) Window(i, n int) ([]float64, bool) {
	if n <= 0 || i-n+1 < 0 || i >= len(s.index) {
		return nil, false
	}
	for j := i - n + 1; j <= i; j++ {
		if !s.valid[j] {
			return nil, false
		}
	}
	return s.values[i-n+1 : i+1], true
}

// Rolling aggregates every full window of n values with agg.
// It fails with ErrInvalidPeriod when n is not positive or exceeds the series length.
func (s *Series) Rolling(n int, agg func(window []float64) (float64, bool)) (*Series, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidPeriod, "window %d must be positive", n)
	}
	if n > len(s.index) {
		return nil, errors.Wrapf(ErrInvalidPeriod, "window %d exceeds series length %d", n, len(s.index))
	}

	out := alloc(s.index)
	for i := n - 1; i < len(s.index); i++ {
		w, ok := s.Window(i, n)
		if !ok {
			continue
		}
		v, ok := agg(w)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.values[i] = v
		out.valid[i] = true
	}
	return out, nil
}

// RollingSum is the sum over each window of n values.
func (s *Series) RollingSum(n int) (*Series, error) {
	return s.Rolling(n, func(w []float64) (float64, bool) { return sum(w), true })
}

// RollingMean is the arithmetic mean over each window of n values.
func (s *Series) RollingMean(n int) (*Series, error) {
	return s.Rolling(n, func(w []float64) (float64, bool) { return sum(w) / float64(len(w)), true })
}

// RollingStd is the standard deviation over each window of n values.
// A sample deviation needs a window of at least two values.
func (s *Series) RollingStd(n int, ddof StdDev) (*Series, error) {
	if ddof == Sample && n == 1 {
		return nil, errors.Wrap(ErrInvalidPeriod, "sample standard deviation needs a window of at least 2")
	}
	return s.Rolling(n, func(w []float64) (float64, bool) {
		denom := float64(len(w))
		if ddof == Sample {
			denom--
		}
		mean := sum(w) / float64(len(w))
		var sq float64
		for _, v := range w {
			d := v - mean
			sq += d * d
		}
		return math.Sqrt(sq / denom), true
	})
}

// RollingMax is the maximum over each window of n values.
func (s *Series) RollingMax(n int) (*Series, error) {
	return s.Rolling(n, func(w []float64) (float64, bool) {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Max(m, v)
		}
		return m, true
	})
}

// RollingMin is the minimum over each window of n values.
func (s *Series) RollingMin(n int) (*Series, error) {
	return s.Rolling(n, func(w []float64) (float64, bool) {
		m := w[0]
		for _, v := range w[1:] {
			m = math.Min(m, v)
		}
		return m, true
	})
}

func sum(w []float64) float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}
