// Package geometry turns a lens, camera and shot description into the
// per-pixel undistorted-coordinate grid consumed by the field package.
package geometry

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"lensdist/internal/models"
	"lensdist/pkg/field"
	"lensdist/pkg/lensdb"
	"lensdist/pkg/radial"
)

// ErrInvalidRequest is returned for requests with a non-positive image size
// or crop factor.
var ErrInvalidRequest = errors.New("invalid geometry request")

// Request describes one shot. Aperture and Distance do not change the
// geometric distortion but are part of the request identity.
type Request struct {
	Lens        models.Lens
	CropFactor  float64
	Width       int
	Height      int
	FocalLength float64
	Aperture    float64
	Distance    float64
}

// Engine produces undistorted-coordinate grids and fitted radial models.
type Engine interface {
	UndistortedGrid(ctx context.Context, req Request) (*field.Grid, error)
	FittedDistortion(lens models.Lens, focalLength float64) (radial.Model, error)
}

// Modifier is the Engine backed by the calibration database.
type Modifier struct{}

// NewModifier returns a Modifier.
func NewModifier() *Modifier {
	return &Modifier{}
}

// FittedDistortion interpolates the lens calibration at focalLength.
func (m *Modifier) FittedDistortion(lens models.Lens, focalLength float64) (radial.Model, error) {
	return lensdb.InterpolateDistortion(lens, focalLength)
}

// UndistortedGrid computes, for every pixel of a Width x Height image, where
// the undistorted scene point lands after distortion. Pixel offsets from the
// center are normalized by half the shorter image side and rescaled from the
// camera's crop factor to the one the lens was calibrated at.
func (m *Modifier) UndistortedGrid(ctx context.Context, req Request) (*field.Grid, error) {
	if req.Width <= 0 || req.Height <= 0 || !(req.CropFactor > 0) {
		return nil, errors.Wrapf(ErrInvalidRequest, "%dx%d crop=%g", req.Width, req.Height, req.CropFactor)
	}
	model, err := m.FittedDistortion(req.Lens, req.FocalLength)
	if err != nil {
		return nil, err
	}

	lensCrop := req.Lens.CropFactor
	if !(lensCrop > 0) {
		lensCrop = req.CropFactor
	}
	scale := math.Min(float64(req.Width), float64(req.Height)) / 2
	norm := lensCrop / req.CropFactor / scale

	grid := field.NewGrid(req.Width, req.Height)
	center := grid.Center()
	for row := 0; row < req.Height; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col := 0; col < req.Width; col++ {
			offset := r2.Point{X: float64(col), Y: float64(row)}.Sub(center)
			ru := offset.Norm() * norm
			rd, _ := model.Evaluate(ru, 0)
			k := 1.0
			if ru != 0 {
				k = rd / ru
			}
			grid.Set(row, col, center.Add(offset.Mul(k)))
		}
	}
	return grid, nil
}
