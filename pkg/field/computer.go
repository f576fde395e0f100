// Package field computes per-pixel distortion distance fields from an
// undistorted-coordinate grid.
//
// All outputs are H x W matrices aligned with the input grid. Values that
// cannot be represented (non-finite input, or relative distortions outside
// the open interval (-0.99, 0.99)) are stored as NaN, which downstream
// renderers treat as "no data".
package field

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RelativeLimit bounds relative distances: any ratio outside
// (-RelativeLimit, RelativeLimit) becomes NaN.
const RelativeLimit = 0.99

// ErrEmptyGrid is returned for a grid with no pixels.
var ErrEmptyGrid = errors.New("empty coordinate grid")

// Computer derives distance fields from a Grid. Rows are split across
// Workers goroutines; the result does not depend on the worker count.
type Computer struct {
	// Workers is the number of goroutines used per field. Values below 1
	// use runtime.NumCPU().
	Workers int
}

// NewComputer returns a Computer using the given number of workers.
func NewComputer(workers int) *Computer {
	return &Computer{Workers: workers}
}

// kernel maps a pixel's signed distance and undistorted radius onto the
// output value.
type kernel func(distance, hUndist float64) float64

// Distance returns hDist - hUndist per pixel, where hDist is the distance
// from the image center to the pixel itself and hUndist the distance from
// the center to the grid position.
func (c *Computer) Distance(grid *Grid) (*mat.Dense, error) {
	return c.compute(grid, func(d, _ float64) float64 {
		return finiteOrNaN(d)
	})
}

// AbsoluteDistance returns |Distance|.
func (c *Computer) AbsoluteDistance(grid *Grid) (*mat.Dense, error) {
	return c.compute(grid, func(d, _ float64) float64 {
		return finiteOrNaN(math.Abs(d))
	})
}

// RelativeDistance returns Distance / hUndist with the RelativeLimit clamp.
// Near the image center hUndist approaches zero and the ratio becomes
// unstable; those pixels end up as NaN.
func (c *Computer) RelativeDistance(grid *Grid) (*mat.Dense, error) {
	return c.compute(grid, func(d, hUndist float64) float64 {
		return clampRelative(d / hUndist)
	})
}

// RelativeDistanceByCornerNorm returns Distance divided by the single
// scalar corner distance sqrt(W² + H²)/2, with the RelativeLimit clamp.
func (c *Computer) RelativeDistanceByCornerNorm(grid *Grid) (*mat.Dense, error) {
	if grid == nil {
		return nil, ErrEmptyGrid
	}
	w, h := grid.Dims()
	corner := CornerDistance(w, h)
	return c.compute(grid, func(d, _ float64) float64 {
		return clampRelative(d / corner)
	})
}

// CornerDistance is the distance from the image center to a corner.
func CornerDistance(width, height int) float64 {
	return math.Sqrt(float64(width*width+height*height)) / 2
}

func (c *Computer) compute(grid *Grid, k kernel) (*mat.Dense, error) {
	if grid == nil {
		return nil, ErrEmptyGrid
	}
	w, h := grid.Dims()
	if w == 0 || h == 0 {
		return nil, errors.Wrapf(ErrEmptyGrid, "%dx%d", w, h)
	}

	out := mat.NewDense(h, w, nil)
	raw := out.RawMatrix()
	center := grid.Center()

	workers := c.workers()
	if workers > h {
		workers = h
	}
	rowsPerWorker := (h + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < h; start += rowsPerWorker {
		end := start + rowsPerWorker
		if end > h {
			end = h
		}
		start := start
		g.Go(func() error {
			for row := start; row < end; row++ {
				line := raw.Data[row*raw.Stride : row*raw.Stride+w]
				for col := range line {
					dx := float64(col) - center.X
					dy := float64(row) - center.Y
					hDist := math.Hypot(dx, dy)
					hUndist := grid.At(row, col).Sub(center).Norm()
					line[col] = k(hDist-hUndist, hUndist)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Computer) workers() int {
	if c == nil || c.Workers < 1 {
		return runtime.NumCPU()
	}
	return c.Workers
}

func finiteOrNaN(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// clampRelative keeps v only inside the open interval (-RelativeLimit,
// RelativeLimit). NaN fails both comparisons and stays NaN.
func clampRelative(v float64) float64 {
	if v > -RelativeLimit && v < RelativeLimit {
		return v
	}
	return math.NaN()
}
