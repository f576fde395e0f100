// Package sensor converts between physical sensor distances and the
// normalized radius consumed by the radial distortion models.
package sensor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Nominal full-frame sensor dimensions in mm.
const (
	FullFrameWidth  = 36.0
	FullFrameHeight = 24.0
)

// ErrInvalidGeometry is returned for non-positive or non-finite sensor dimensions.
var ErrInvalidGeometry = errors.New("invalid sensor geometry")

// Geometry holds the sensor half-height and half-diagonal in mm.
// HalfHeight is the unit of the normalized radius; HalfDiagonal is where the
// image corner sits physically.
type Geometry struct {
	HalfHeight   float64
	HalfDiagonal float64
}

// NewGeometry computes the sensor geometry from nominal dimensions and a
// crop factor:
//
//	diag       = sqrt(w² + h²)
//	alpha      = asin(w / diag)
//	physDiag   = diag * crop
//	physHeight = cos(alpha) * physDiag
func NewGeometry(widthMM, heightMM, cropFactor float64) (Geometry, error) {
	for _, v := range []float64{widthMM, heightMM, cropFactor} {
		if !(v > 0) || math.IsInf(v, 0) {
			return Geometry{}, errors.Wrapf(ErrInvalidGeometry,
				"width=%g height=%g crop=%g", widthMM, heightMM, cropFactor)
		}
	}
	diag := math.Sqrt(widthMM*widthMM + heightMM*heightMM)
	alpha := math.Asin(widthMM / diag)
	physDiag := diag * cropFactor
	physHeight := math.Cos(alpha) * physDiag
	return Geometry{
		HalfHeight:   physHeight / 2,
		HalfDiagonal: physDiag / 2,
	}, nil
}

// FullFrame computes the geometry for the 36x24 mm reference sensor.
func FullFrame(cropFactor float64) (Geometry, error) {
	return NewGeometry(FullFrameWidth, FullFrameHeight, cropFactor)
}

// Normalize converts a physical radius in mm to a normalized radius.
func (g Geometry) Normalize(mm float64) float64 {
	return mm / g.HalfHeight
}

// Denormalize converts a normalized radius to mm.
func (g Geometry) Denormalize(ru float64) float64 {
	return ru * g.HalfHeight
}

// MaxRadius is the normalized radius of the image corner.
func (g Geometry) MaxRadius() float64 {
	return g.HalfDiagonal / g.HalfHeight
}

// SampleRadii returns n evenly spaced physical radii in mm covering
// [0, HalfDiagonal]. n must be at least 2.
func (g Geometry) SampleRadii(n int) ([]float64, error) {
	if n < 2 {
		return nil, errors.Errorf("need at least 2 samples, got %d", n)
	}
	return floats.Span(make([]float64, n), 0, g.HalfDiagonal), nil
}
