package series

import (
	"math"

	"github.com/pkg/errors"
)

// EWM applies the exponential recurrence y[i] = α·x[i] + (1-α)·y[i-1] with α = 2/(span+1).
// The recurrence starts at the first defined input. Positions before minPeriods observations
// have been seen are undefined on output, but the recurrence keeps running through them.
func (s *Series) EWM(span float64, minPeriods int) (*Series, error) {
	if math.IsNaN(span) || span < 1 {
		return nil, errors.Wrapf(ErrInvalidPeriod, "span %v must be at least 1", span)
	}
	return s.EWMAlpha(2/(span+1), minPeriods)
}

// EWMAlpha is EWM parameterised by the smoothing factor directly. Alpha must lie in (0, 1].
// An undefined input after the first observation yields undefined and leaves the state untouched.
func (s *Series) EWMAlpha(alpha float64, minPeriods int) (*Series, error) {
	if math.IsNaN(alpha) || alpha <= 0 || alpha > 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "alpha %v must be in (0, 1]", alpha)
	}
	if minPeriods < 1 {
		minPeriods = 1
	}

	out := alloc(s.index)
	var (
		y     float64
		count int
	)
	for i, ok := range s.valid {
		if !ok {
			continue
		}
		x := s.values[i]
		if count == 0 {
			y = x
		} else {
			y = alpha*x + (1-alpha)*y
		}
		count++
		if count >= minPeriods {
			out.values[i] = y
			out.valid[i] = true
		}
	}
	return out, nil
}
