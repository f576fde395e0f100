// Package sip expands radial distortion models into Simple Imaging
// Polynomial (SIP) coefficient sets.
//
// A coefficient set describes two polynomials f(x, y) and g(x, y) whose
// values are the x and y offsets that move a distorted position back onto
// the corrected one. Coefficient A_p_q multiplies x^p y^q in f, B_p_q does
// the same in g. The polynomials are evaluated on offsets divided by the
// scale s = min(W, H)/2 and return pixel offsets, so that for every (x, y)
//
//	set.Apply(x, y) == s * model.Apply(x/s, y/s)
package sip

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"lensdist/pkg/radial"
)

// ErrUnsupportedConfiguration is returned for a PTLens model with nonzero a
// or c terms, for which no exact SIP expansion is known.
var ErrUnsupportedConfiguration = errors.New("unsupported configuration")

// Axis selects the polynomial a coefficient belongs to.
type Axis byte

const (
	// A is the x-direction polynomial f.
	A = Axis('A')
	// B is the y-direction polynomial g.
	B = Axis('B')
)

// Key identifies a coefficient: the term x^P y^Q of the Axis polynomial.
type Key struct {
	Axis Axis
	P, Q int
}

// String returns the SIP keyword, e.g. "A_1_2".
func (k Key) String() string {
	return fmt.Sprintf("%c_%d_%d", k.Axis, k.P, k.Q)
}

// CoefficientSet is a sparse SIP coefficient set. Keys absent from
// Coefficients are zero.
type CoefficientSet struct {
	AOrder       int
	BOrder       int
	Scale        float64
	Coefficients map[Key]float64
}

// Keyword is a single SIP header keyword and its value.
type Keyword struct {
	Name  string
	Value float64
}

// Scale returns the normalization scale, half the shorter image dimension.
func Scale(width, height int) float64 {
	if height < width {
		return float64(height) / 2
	}
	return float64(width) / 2
}

// Poly3 expands the cubic model:
//
//	f(u,v) = k1*u - k1*u*v^2 - k1*u^3
//	g(u,v) = k1*v - k1*u^2*v - k1*v^3
func Poly3(k1 float64, width, height int) CoefficientSet {
	s := Scale(width, height)
	k1 *= s
	return newSymmetricSet(3, s, map[[2]int]float64{
		{1, 0}: k1,
		{1, 2}: -k1,
		{3, 0}: -k1,
	})
}

// Poly5 expands the quintic model:
//
//	f(u,v) = -k1*u*v^2 - k1*u^3 - 2*k2*u^3*v^2 - k2*u*v^4 - k2*u^5
//
// and g by swapping the roles of u and v.
func Poly5(k1, k2 float64, width, height int) CoefficientSet {
	s := Scale(width, height)
	k1 *= s
	k2 *= s
	return newSymmetricSet(5, s, map[[2]int]float64{
		{1, 2}: -k1,
		{3, 0}: -k1,
		{3, 2}: -2 * k2,
		{1, 4}: -k2,
		{5, 0}: -k2,
	})
}

// PTLens expands the panotools model. Only a == c == 0 is supported, where
// the model reduces to Poly3 with k1 = b.
func PTLens(a, b, c float64, width, height int) (CoefficientSet, error) {
	if a != 0 || c != 0 {
		return CoefficientSet{}, errors.Wrapf(ErrUnsupportedConfiguration,
			"ptlens with a=%g c=%g has no SIP expansion", a, c)
	}
	return Poly3(b, width, height), nil
}

// FromModel expands m for an image of the given size.
func FromModel(m radial.Model, width, height int) (CoefficientSet, error) {
	t := m.Terms()
	switch m.Kind() {
	case radial.Poly3:
		return Poly3(t[0], width, height), nil
	case radial.Poly5:
		return Poly5(t[0], t[1], width, height), nil
	case radial.PTLens:
		return PTLens(t[0], t[1], t[2], width, height)
	default:
		return CoefficientSet{}, errors.Wrapf(radial.ErrUnsupportedModel, "%q", string(m.Kind()))
	}
}

// newSymmetricSet builds a set from the A coefficients and mirrors them
// onto B with B_p_q = A_q_p.
func newSymmetricSet(order int, scale float64, a map[[2]int]float64) CoefficientSet {
	set := CoefficientSet{
		AOrder:       order,
		BOrder:       order,
		Scale:        scale,
		Coefficients: make(map[Key]float64, 2*len(a)),
	}
	for pq, v := range a {
		set.Coefficients[Key{Axis: A, P: pq[0], Q: pq[1]}] = v
		set.Coefficients[Key{Axis: B, P: pq[1], Q: pq[0]}] = v
	}
	return set
}

// Coefficient returns the value for k, zero when absent.
func (s CoefficientSet) Coefficient(k Key) float64 {
	return s.Coefficients[k]
}

// Apply evaluates f and g at the pixel offset (x, y) from the image center
// and returns the correction offset in pixels.
func (s CoefficientSet) Apply(x, y float64) (float64, float64) {
	u, v := x/s.Scale, y/s.Scale
	var f, g float64
	for k, c := range s.Coefficients {
		term := c * math.Pow(u, float64(k.P)) * math.Pow(v, float64(k.Q))
		switch k.Axis {
		case A:
			f += term
		case B:
			g += term
		}
	}
	return f, g
}

// Keywords lists the set as SIP keywords: A_ORDER, the A coefficients,
// B_ORDER, the B coefficients. Coefficients are ordered by total power,
// then by power of x.
func (s CoefficientSet) Keywords() []Keyword {
	keys := make([]Key, 0, len(s.Coefficients))
	for k := range s.Coefficients {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ki, kj := keys[i], keys[j]
		if ki.Axis != kj.Axis {
			return ki.Axis < kj.Axis
		}
		if ki.P+ki.Q != kj.P+kj.Q {
			return ki.P+ki.Q < kj.P+kj.Q
		}
		return ki.P > kj.P
	})

	out := make([]Keyword, 0, len(keys)+2)
	out = append(out, Keyword{Name: "A_ORDER", Value: float64(s.AOrder)})
	for i, k := range keys {
		if k.Axis == B && (i == 0 || keys[i-1].Axis == A) {
			out = append(out, Keyword{Name: "B_ORDER", Value: float64(s.BOrder)})
		}
		out = append(out, Keyword{Name: k.String(), Value: s.Coefficients[k]})
	}
	if len(keys) == 0 || keys[len(keys)-1].Axis == A {
		out = append(out, Keyword{Name: "B_ORDER", Value: float64(s.BOrder)})
	}
	return out
}
