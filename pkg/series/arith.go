package series

import (
	"math"
	"time"
)

type binaryOp func(x, y float64) (float64, bool)

// Combine applies op to every timestamp where both series are defined. The result spans the
// union of both indexes; op may report false to leave a position undefined.
func Combine(a, b *Series, op func(x, y float64) (float64, bool)) *Series {
	return combine(a, b, op)
}

// Add returns s + o aligned by timestamp.
func (s *Series) Add(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) { return x + y, true })
}

// Sub returns s - o aligned by timestamp.
func (s *Series) Sub(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) { return x - y, true })
}

// Mul returns s * o aligned by timestamp.
func (s *Series) Mul(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) { return x * y, true })
}

// Div returns s / o aligned by timestamp. A zero divisor yields undefined.
func (s *Series) Div(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) {
		if y == 0 {
			return 0, false
		}
		return x / y, true
	})
}

// Max returns the element-wise maximum of s and o aligned by timestamp.
func (s *Series) Max(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) { return math.Max(x, y), true })
}

// Min returns the element-wise minimum of s and o aligned by timestamp.
func (s *Series) Min(o *Series) *Series {
	return combine(s, o, func(x, y float64) (float64, bool) { return math.Min(x, y), true })
}

// Map applies fn to every defined value.
func (s *Series) Map(fn func(float64) float64) *Series {
	out := alloc(s.index)
	for i, ok := range s.valid {
		if !ok {
			continue
		}
		v := fn(s.values[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.values[i] = v
		out.valid[i] = true
	}
	return out
}

// AddScalar returns s + c.
func (s *Series) AddScalar(c float64) *Series {
	return s.Map(func(v float64) float64 { return v + c })
}

// MulScalar returns s * c.
func (s *Series) MulScalar(c float64) *Series {
	return s.Map(func(v float64) float64 { return v * c })
}

// Abs returns |s|.
func (s *Series) Abs() *Series {
	return s.Map(math.Abs)
}

// Clip bounds every defined value to [lo, hi].
func (s *Series) Clip(lo, hi float64) *Series {
	return s.Map(func(v float64) float64 { return math.Min(math.Max(v, lo), hi) })
}

// combine applies op position by position. Identical indexes are combined directly;
// otherwise the result spans the union of both indexes and any timestamp missing from
// either operand is undefined.
func combine(a, b *Series, op binaryOp) *Series {
	if SameIndex(a, b) {
		out := alloc(a.index)
		for i := range a.index {
			if a.valid[i] && b.valid[i] {
				out.values[i], out.valid[i] = op(a.values[i], b.values[i])
			}
		}
		return out
	}

	index := make([]time.Time, 0, len(a.index)+len(b.index))
	type pair struct{ i, j int }
	pos := make([]pair, 0, cap(index))

	i, j := 0, 0
	for i < len(a.index) || j < len(b.index) {
		switch {
		case j == len(b.index) || (i < len(a.index) && a.index[i].Before(b.index[j])):
			index = append(index, a.index[i])
			pos = append(pos, pair{i, -1})
			i++
		case i == len(a.index) || b.index[j].Before(a.index[i]):
			index = append(index, b.index[j])
			pos = append(pos, pair{-1, j})
			j++
		default:
			index = append(index, a.index[i])
			pos = append(pos, pair{i, j})
			i++
			j++
		}
	}

	out := alloc(index)
	for k, p := range pos {
		if p.i < 0 || p.j < 0 || !a.valid[p.i] || !b.valid[p.j] {
			continue
		}
		out.values[k], out.valid[k] = op(a.values[p.i], b.values[p.j])
	}
	return out
}
