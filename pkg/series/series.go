// Package series provides an immutable, time-indexed numeric sequence with explicit
// undefined markers, rolling windows, exponential smoothing and timestamp-aligned arithmetic.
//
// Every position carries a validity flag. An undefined position is never read as zero:
// any operation touching an undefined operand yields undefined.
package series

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Series is an ordered mapping from strictly increasing timestamps to values.
// Series values are never mutated after construction, so the index may be shared between series.
type Series struct {
	index  []time.Time
	values []float64
	valid  []bool
}

// New creates a series from an index and its values. NaN and infinite values are stored as undefined.
func New(index []time.Time, values []float64) (*Series, error) {
	if len(index) != len(values) {
		return nil, errors.Wrapf(ErrLengthMismatch, "index has %d timestamps, values has %d", len(index), len(values))
	}
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return nil, errors.Wrapf(ErrUnsortedIndex, "timestamp %s at position %d does not follow %s",
				index[i].Format(time.RFC3339), i, index[i-1].Format(time.RFC3339))
		}
	}

	idx := make([]time.Time, len(index))
	copy(idx, index)

	s := alloc(idx)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.values[i] = v
		s.valid[i] = true
	}

	return s, nil
}

// Regular creates a series whose timestamps start at start and advance by step.
func Regular(start time.Time, step time.Duration, values []float64) (*Series, error) {
	if step <= 0 {
		return nil, errors.Wrapf(ErrUnsortedIndex, "step %s", step)
	}
	index := make([]time.Time, len(values))
	for i := range values {
		index[i] = start.Add(time.Duration(i) * step)
	}
	return New(index, values)
}

func alloc(index []time.Time) *Series {
	return &Series{
		index:  index,
		values: make([]float64, len(index)),
		valid:  make([]bool, len(index)),
	}
}

// Len returns the number of positions.
func (s *Series) Len() int { return len(s.index) }

// Time returns the timestamp at position i.
func (s *Series) Time(i int) time.Time { return s.index[i] }

// At returns the value at position i and whether it is defined.
func (s *Series) At(i int) (float64, bool) {
	if !s.valid[i] {
		return 0, false
	}
	return s.values[i], true
}

// Defined reports whether position i holds a value.
func (s *Series) Defined(i int) bool { return s.valid[i] }

// Index returns a copy of the timestamps.
func (s *Series) Index() []time.Time {
	out := make([]time.Time, len(s.index))
	copy(out, s.index)
	return out
}

// Floats exports the values with NaN in undefined positions.
func (s *Series) Floats() []float64 {
	out := make([]float64, len(s.values))
	for i := range s.values {
		if s.valid[i] {
			out[i] = s.values[i]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Lookup returns the value stored at timestamp t.
func (s *Series) Lookup(t time.Time) (float64, bool) {
	i := sort.Search(len(s.index), func(i int) bool { return !s.index[i].Before(t) })
	if i == len(s.index) || !s.index[i].Equal(t) {
		return 0, false
	}
	return s.At(i)
}

// Last returns the most recent position's timestamp and value.
func (s *Series) Last() (time.Time, float64, bool) {
	if len(s.index) == 0 {
		return time.Time{}, 0, false
	}
	v, ok := s.At(len(s.index) - 1)
	return s.index[len(s.index)-1], v, ok
}

// FirstDefined returns the first defined position or -1.
func (s *Series) FirstDefined() int {
	for i, ok := range s.valid {
		if ok {
			return i
		}
	}
	return -1
}

// Slice returns positions [from, to).
func (s *Series) Slice(from, to int) *Series {
	return &Series{
		index:  s.index[from:to],
		values: s.values[from:to],
		valid:  s.valid[from:to],
	}
}

// MaskHead marks the first n positions undefined.
func (s *Series) MaskHead(n int) *Series {
	out := s.clone()
	for i := 0; i < n && i < len(out.valid); i++ {
		out.valid[i] = false
		out.values[i] = 0
	}
	return out
}

// Shift moves values k positions forward in time: position i takes the value at i-k.
// The first k positions become undefined; a negative k shifts backwards.
func (s *Series) Shift(k int) *Series {
	out := alloc(s.index)
	for i := range s.index {
		j := i - k
		if j < 0 || j >= len(s.index) || !s.valid[j] {
			continue
		}
		out.values[i] = s.values[j]
		out.valid[i] = true
	}
	return out
}

// Diff returns s[i] - s[i-k].
func (s *Series) Diff(k int) *Series {
	return s.Sub(s.Shift(k))
}

func (s *Series) clone() *Series {
	out := alloc(s.index)
	copy(out.values, s.values)
	copy(out.valid, s.valid)
	return out
}

// SameIndex reports whether two series have identical timestamps.
func SameIndex(a, b *Series) bool {
	if len(a.index) != len(b.index) {
		return false
	}
	for i := range a.index {
		if !a.index[i].Equal(b.index[i]) {
			return false
		}
	}
	return true
}

// Aligned returns ErrMisalignedInputs unless every series shares the first one's index.
func Aligned(first *Series, rest ...*Series) error {
	for i, s := range rest {
		if !SameIndex(first, s) {
			return errors.Wrapf(ErrMisalignedInputs, "input %d does not share the index of input 0", i+1)
		}
	}
	return nil
}
