// Package visualization renders distance fields as heatmaps and radial
// model curves as line plots. The output format follows the file extension
// (svg, png, pdf, ...).
package visualization

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when a field or curve has no finite value to draw.
var ErrNoData = errors.New("nothing to plot")

// Options configures rendering. There is no package-level state; callers
// pass Options to every call.
type Options struct {
	// Palette lists hex colour stops from low to high values.
	Palette []string
	// Levels is the number of discrete heatmap colours.
	Levels int
	// Width and Height of the saved figure.
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions uses the RdBu diverging scheme at 16x12 cm.
func DefaultOptions() Options {
	return Options{
		Palette: RdBu,
		Levels:  255,
		Width:   16 * vg.Centimeter,
		Height:  12 * vg.Centimeter,
	}
}

// LineOptions configures a line plot.
type LineOptions struct {
	Title  string
	XLabel string
	YLabel string
	// XMin and XMax fix the x range when XMax > XMin.
	XMin, XMax float64
	Grid       bool
	// ShadeSign fills y > 0 in orange (pincushion) and y < 0 in blue (barrel).
	ShadeSign bool
}

// matrixGrid adapts a matrix to plotter.GridXYZ with row 0 drawn at the
// top, the way images are displayed.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// Heatmap draws m with a diverging colour scale centered on zero. NaN
// values are left transparent.
func Heatmap(path, title string, m mat.Matrix, opts Options) error {
	maxAbs := 0.0
	finite := 0
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			finite++
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	if finite == 0 {
		return errors.Wrapf(ErrNoData, "heatmap %s", filepath.Base(path))
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	cm, err := NewDiverging(opts.Palette, -maxAbs, maxAbs)
	if err != nil {
		return err
	}
	levels := opts.Levels
	if levels < 2 {
		levels = 2
	}

	hm := plotter.NewHeatMap(matrixGrid{m: m}, cm.Palette(levels))
	hm.Min, hm.Max = -maxAbs, maxAbs
	hm.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = title
	p.Add(hm)
	p.HideAxes()
	return save(p, path, opts)
}

// LinePlot draws ys against xs in black. Non-finite points are skipped.
func LinePlot(path string, xs, ys []float64, lo LineOptions, opts Options) error {
	if len(xs) != len(ys) {
		return errors.Errorf("x and y lengths differ: %d != %d", len(xs), len(ys))
	}
	pts := make(plotter.XYs, 0, len(xs))
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
		ymin = math.Min(ymin, ys[i])
		ymax = math.Max(ymax, ys[i])
	}
	if len(pts) == 0 {
		return errors.Wrapf(ErrNoData, "line plot %s", filepath.Base(path))
	}

	p := plot.New()
	p.Title.Text = lo.Title
	p.X.Label.Text = lo.XLabel
	p.Y.Label.Text = lo.YLabel
	if lo.Grid {
		p.Add(plotter.NewGrid())
	}

	x0, x1 := pts[0].X, pts[len(pts)-1].X
	if lo.XMax > lo.XMin {
		x0, x1 = lo.XMin, lo.XMax
	}

	if lo.ShadeSign {
		if ymax > 0 {
			if err := shade(p, x0, x1, 0, ymax, color.NRGBA{R: 255, G: 165, A: 77}); err != nil {
				return err
			}
		}
		if ymin < 0 {
			if err := shade(p, x0, x1, ymin, 0, color.NRGBA{B: 255, A: 77}); err != nil {
				return err
			}
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "error creating line")
	}
	line.Color = color.Black
	p.Add(line)

	if lo.XMax > lo.XMin {
		p.X.Min, p.X.Max = lo.XMin, lo.XMax
	}
	return save(p, path, opts)
}

// shade fills the band [ylo, yhi] between x0 and x1.
func shade(p *plot.Plot, x0, x1, ylo, yhi float64, c color.Color) error {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: ylo}, {X: x1, Y: ylo}, {X: x1, Y: yhi}, {X: x0, Y: yhi},
	})
	if err != nil {
		return errors.Wrap(err, "error creating shading")
	}
	poly.Color = c
	poly.LineStyle.Width = 0
	p.Add(poly)
	return nil
}

func save(p *plot.Plot, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output dir")
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
