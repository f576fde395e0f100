// Package radial evaluates the 1-D radial distortion models used by lens
// calibration databases. A model maps a normalized undistorted radius ru,
// where 1.0 is the sensor half-height, to a normalized distorted radius rd.
package radial

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the name of a radial distortion model.
type Kind string

const (
	// PTLens is the panotools model rd = ru*(a*ru^3 + b*ru^2 + c*ru + 1 - a - b - c).
	PTLens = Kind("ptlens")
	// Poly3 is the cubic model rd = ru*(1 - k1 + k1*ru^2).
	Poly3 = Kind("poly3")
	// Poly5 is the quintic model rd = ru*(1 + k1*ru^2 + k2*ru^4).
	Poly5 = Kind("poly5")
)

var (
	// ErrUnsupportedModel is returned for a Kind this package does not know.
	ErrUnsupportedModel = errors.New("unsupported distortion model")
	// ErrUnsupportedOrder is returned when an evaluation order other than 0 or 1 is requested.
	ErrUnsupportedOrder = errors.New("unsupported evaluation order")
	// ErrTermCount is returned when the number of terms does not match the model kind.
	ErrTermCount = errors.New("term count does not match distortion model")
)

// TermCount returns how many terms a model of the given kind carries.
func TermCount(kind Kind) (int, error) {
	switch kind {
	case PTLens:
		return 3, nil
	case Poly3:
		return 1, nil
	case Poly5:
		return 2, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedModel, "%q", string(kind))
	}
}

// ParseKind maps a case-insensitive model name onto a Kind.
func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, err := TermCount(kind); err != nil {
		return "", err
	}
	return kind, nil
}

// Model is a radial distortion model with its fitted terms. The zero value
// is not usable; build models with NewModel.
type Model struct {
	kind  Kind
	terms []float64
}

// NewModel validates the term count against the kind and returns the model.
// Terms are copied.
func NewModel(kind Kind, terms ...float64) (Model, error) {
	n, err := TermCount(kind)
	if err != nil {
		return Model{}, err
	}
	if len(terms) != n {
		return Model{}, errors.Wrapf(ErrTermCount, "%s expects %d terms, got %d", kind, n, len(terms))
	}
	return Model{kind: kind, terms: append([]float64(nil), terms...)}, nil
}

// Kind returns the model kind.
func (m Model) Kind() Kind {
	return m.kind
}

// Terms returns a copy of the model terms in their canonical order
// (a, b, c for PTLens; k1 for Poly3; k1, k2 for Poly5).
func (m Model) Terms() []float64 {
	return append([]float64(nil), m.terms...)
}

// String implements fmt.Stringer.
func (m Model) String() string {
	return fmt.Sprintf("%s%v", m.kind, m.terms)
}

// Evaluate returns rd(ru) for order 0 and the derivative of the distortion
// ratio rd/ru with respect to ru for order 1.
func (m Model) Evaluate(ru float64, order int) (float64, error) {
	switch order {
	case 0:
		return ru * m.ratio(ru), nil
	case 1:
		return m.ratioDerivative(ru), nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedOrder, "order %d", order)
	}
}

// EvaluateAll applies Evaluate to every radius. The output has the same
// length as rus.
func (m Model) EvaluateAll(rus []float64, order int) ([]float64, error) {
	if order != 0 && order != 1 {
		return nil, errors.Wrapf(ErrUnsupportedOrder, "order %d", order)
	}
	out := make([]float64, len(rus))
	for i, ru := range rus {
		// order is already validated
		out[i], _ = m.Evaluate(ru, order)
	}
	return out, nil
}

// Distortion returns the relative distortion rd/ru - 1 at ru. It is NaN at
// ru == 0, where the relative distortion is undefined for plotting.
func (m Model) Distortion(ru float64) float64 {
	if ru == 0 {
		return math.NaN()
	}
	return (ru*m.ratio(ru) - ru) / ru
}

// Apply returns the 2-D correction for the normalized point (u, v): the
// offset that moves the distorted position back onto the undistorted one.
// The offset is radial, (u, v)*(1 - rd(r)/r) with r = hypot(u, v).
func (m Model) Apply(u, v float64) (float64, float64) {
	k := 1 - m.ratio(math.Hypot(u, v))
	return u * k, v * k
}

// ratio returns rd(ru)/ru, which is a polynomial in ru for every kind and so
// is defined at ru == 0.
func (m Model) ratio(ru float64) float64 {
	t := m.terms
	switch m.kind {
	case PTLens:
		a, b, c := t[0], t[1], t[2]
		return a*ru*ru*ru + b*ru*ru + c*ru + (1 - a - b - c)
	case Poly3:
		k1 := t[0]
		return 1 - k1 + k1*ru*ru
	case Poly5:
		k1, k2 := t[0], t[1]
		ru2 := ru * ru
		return 1 + k1*ru2 + k2*ru2*ru2
	default:
		// unreachable for models built by NewModel
		return 1
	}
}

func (m Model) ratioDerivative(ru float64) float64 {
	t := m.terms
	switch m.kind {
	case PTLens:
		a, b, c := t[0], t[1], t[2]
		return 3*a*ru*ru + 2*b*ru + c
	case Poly3:
		return 2 * t[0] * ru
	case Poly5:
		k1, k2 := t[0], t[1]
		return 2*k1*ru + 4*k2*ru*ru*ru
	default:
		return 0
	}
}
