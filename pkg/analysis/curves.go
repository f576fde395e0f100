package analysis

import (
	"lensdist/pkg/radial"
	"lensdist/pkg/sensor"
)

// Curve samples a radial model over the physical image radius.
type Curve struct {
	// Radius is the physical distance from the image center in mm, on [0, HalfDiagonal].
	Radius []float64

	// Distortion is the relative distortion (rd/ru - 1) in percent.
	Distortion []float64

	// Derivative is dD/dh in 1/mm; positive values are pincushion, negative barrel.
	Derivative []float64
}

// SampleCurve evaluates m at n radii spread over the sensor geometry.
func SampleCurve(m radial.Model, geom sensor.Geometry, n int) (Curve, error) {
	xs, err := geom.SampleRadii(n)
	if err != nil {
		return Curve{}, err
	}
	rus := make([]float64, len(xs))
	for i, x := range xs {
		rus[i] = geom.Normalize(x)
	}
	deriv, err := m.EvaluateAll(rus, 1)
	if err != nil {
		return Curve{}, err
	}

	c := Curve{
		Radius:     xs,
		Distortion: make([]float64, len(xs)),
		Derivative: make([]float64, len(xs)),
	}
	for i, ru := range rus {
		c.Distortion[i] = m.Distortion(ru) * 100
		c.Derivative[i] = deriv[i] * geom.HalfHeight
	}
	return c, nil
}
