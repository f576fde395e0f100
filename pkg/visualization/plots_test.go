package visualization

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDivergingEnds(t *testing.T) {
	d, err := NewDiverging(RdBu, -1, 1)
	require.NoError(t, err)

	low := d.At(-1).(color.NRGBA)
	mid := d.At(0).(color.NRGBA)
	high := d.At(1).(color.NRGBA)

	assert.Equal(t, color.NRGBA{R: 0x05, G: 0x30, B: 0x61, A: 255}, low)
	assert.Equal(t, color.NRGBA{R: 0x67, G: 0x00, B: 0x1f, A: 255}, high)
	assert.Equal(t, color.NRGBA{R: 0xf7, G: 0xf7, B: 0xf7, A: 255}, mid)

	// out of range clamps
	assert.Equal(t, low, d.At(-5))
	assert.Equal(t, high, d.At(5))
	assert.Equal(t, color.Transparent, d.At(math.NaN()))
}

func TestDivergingPalette(t *testing.T) {
	d, err := NewDiverging([]string{"#0000ff", "#ff0000"}, 0, 10)
	require.NoError(t, err)
	colors := d.Palette(5).Colors()
	require.Len(t, colors, 5)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, colors[0])
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, colors[4])
}

func TestNewDivergingErrors(t *testing.T) {
	_, err := NewDiverging([]string{"#000000"}, 0, 1)
	assert.Error(t, err)
	_, err = NewDiverging([]string{"#000000", "not-a-colour"}, 0, 1)
	assert.Error(t, err)
}

func TestMatrixGridFlipsRows(t *testing.T) {
	g := matrixGrid{m: mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})}
	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 4.0, g.Z(0, 0))
	assert.Equal(t, 3.0, g.Z(2, 1))
}

func TestHeatmap(t *testing.T) {
	dir := t.TempDir()
	m := mat.NewDense(4, 6, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 6; j++ {
			m.Set(i, j, float64(i-j))
		}
	}
	m.Set(0, 0, math.NaN())

	path := filepath.Join(dir, "heat.svg")
	require.NoError(t, Heatmap(path, "test", m, DefaultOptions()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// an all-zero field still renders
	require.NoError(t, Heatmap(filepath.Join(dir, "zero.png"), "", mat.NewDense(3, 3, nil), DefaultOptions()))
}

func TestHeatmapAllMasked(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()})
	err := Heatmap(filepath.Join(t.TempDir(), "none.svg"), "", m, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestLinePlot(t *testing.T) {
	dir := t.TempDir()
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{math.NaN(), -1, 0.5, 2, 1}

	path := filepath.Join(dir, "nested", "line.svg")
	err := LinePlot(path, xs, ys, LineOptions{
		Title: "curve", XLabel: "h (mm)", YLabel: "D (%)",
		XMin: 0, XMax: 4, Grid: true, ShadeSign: true,
	}, DefaultOptions())
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	err = LinePlot(path, xs, ys[:2], LineOptions{}, DefaultOptions())
	assert.Error(t, err)

	err = LinePlot(path, []float64{0}, []float64{math.NaN()}, LineOptions{}, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoData))
}
