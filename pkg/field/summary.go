package field

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the finite values of a field.
type Summary struct {
	Valid  int
	Masked int
	Min    float64
	Max    float64
	Mean   float64
}

// Summarize collects statistics over the finite values of m. Min, Max and
// Mean are NaN when no value is finite.
func Summarize(m mat.Matrix) Summary {
	r, c := m.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
	}
	s := Summary{Valid: len(values), Masked: r*c - len(values)}
	if len(values) == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean = stat.Mean(values, nil)
	return s
}

// Scaled returns a copy of m multiplied by f. NaN entries stay NaN.
func Scaled(f float64, m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}
