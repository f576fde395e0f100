package field

import (
	"github.com/golang/geo/r2"
)

// Grid is an H x W array of pixel-space positions. The cell at (row, col)
// holds where the undistorted scene point for pixel (col, row) falls once
// the distortion is applied. Cells are stored row-major.
type Grid struct {
	width  int
	height int
	cells  []r2.Point
}

// NewGrid returns a zero-filled grid of the given size.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]r2.Point, width*height),
	}
}

// IdentityGrid returns a grid whose cells equal their own pixel coordinates.
func IdentityGrid(width, height int) *Grid {
	g := NewGrid(width, height)
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			g.cells[row*g.width+col] = r2.Point{X: float64(col), Y: float64(row)}
		}
	}
	return g
}

// Dims returns the grid width and height.
func (g *Grid) Dims() (width, height int) {
	return g.width, g.height
}

// At returns the position stored for pixel (col, row).
func (g *Grid) At(row, col int) r2.Point {
	return g.cells[row*g.width+col]
}

// Set stores the position for pixel (col, row).
func (g *Grid) Set(row, col int, p r2.Point) {
	g.cells[row*g.width+col] = p
}

// Center is the image center (W/2, H/2) used as the origin of all radii.
func (g *Grid) Center() r2.Point {
	return r2.Point{X: float64(g.width) / 2, Y: float64(g.height) / 2}
}
