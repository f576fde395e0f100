package geometry

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensdist/internal/models"
	"lensdist/pkg/field"
	"lensdist/pkg/lensdb"
	"lensdist/pkg/radial"
)

func testLens(model string, terms ...float64) models.Lens {
	return models.Lens{
		Maker:      "Test",
		Model:      model,
		CropFactor: 1,
		Distortion: []models.DistortionCalibration{{Focal: 50, Model: model, Terms: terms}},
	}
}

func TestUndistortedGridIdentity(t *testing.T) {
	req := Request{Lens: testLens("ptlens", 0, 0, 0), CropFactor: 1, Width: 30, Height: 20, FocalLength: 50}
	grid, err := NewModifier().UndistortedGrid(context.Background(), req)
	require.NoError(t, err)

	d, err := field.NewComputer(2).Distance(grid)
	require.NoError(t, err)
	s := field.Summarize(d)
	assert.Equal(t, 600, s.Valid)
	assert.InDelta(t, 0, s.Min, 1e-12)
	assert.InDelta(t, 0, s.Max, 1e-12)
}

func TestUndistortedGridFollowsModel(t *testing.T) {
	k1 := 0.05
	req := Request{Lens: testLens("poly3", k1), CropFactor: 1, Width: 40, Height: 20, FocalLength: 50}
	grid, err := NewModifier().UndistortedGrid(context.Background(), req)
	require.NoError(t, err)

	w, h := grid.Dims()
	require.Equal(t, 40, w)
	require.Equal(t, 20, h)

	m, err := radial.NewModel(radial.Poly3, k1)
	require.NoError(t, err)

	// corner pixel (0,0): offset (-20,-10), normalized by 10
	ru := math.Hypot(20, 10) / 10
	rd, err := m.Evaluate(ru, 0)
	require.NoError(t, err)
	p := grid.At(0, 0)
	assert.InDelta(t, 20-20*rd/ru, p.X, 1e-9)
	assert.InDelta(t, 10-10*rd/ru, p.Y, 1e-9)

	// the center is a fixed point
	c := grid.At(10, 20)
	assert.InDelta(t, 20, c.X, 1e-12)
	assert.InDelta(t, 10, c.Y, 1e-12)
}

func TestUndistortedGridCropRatio(t *testing.T) {
	lens := testLens("poly3", 0.05)
	full := Request{Lens: lens, CropFactor: 1, Width: 40, Height: 20, FocalLength: 50}
	cropped := full
	cropped.CropFactor = 2

	a, err := NewModifier().UndistortedGrid(context.Background(), full)
	require.NoError(t, err)
	b, err := NewModifier().UndistortedGrid(context.Background(), cropped)
	require.NoError(t, err)

	// a smaller sensor sees only the inner part of the calibrated field
	da := a.At(0, 0).Sub(a.Center()).Norm() - a.Center().Norm()
	db := b.At(0, 0).Sub(b.Center()).Norm() - b.Center().Norm()
	assert.Greater(t, math.Abs(da), math.Abs(db))
}

func TestUndistortedGridErrors(t *testing.T) {
	ctx := context.Background()
	_, err := NewModifier().UndistortedGrid(ctx, Request{Lens: testLens("poly3", 0.1), CropFactor: 1, Width: 0, Height: 10})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = NewModifier().UndistortedGrid(ctx, Request{Lens: models.Lens{}, CropFactor: 1, Width: 10, Height: 10})
	assert.True(t, errors.Is(err, lensdb.ErrNoCalibration))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewModifier().UndistortedGrid(cancelled, Request{Lens: testLens("poly3", 0.1), CropFactor: 1, Width: 10, Height: 10})
	assert.True(t, errors.Is(err, context.Canceled))
}

type countingEngine struct {
	Modifier
	calls atomic.Int32
}

func (c *countingEngine) UndistortedGrid(ctx context.Context, req Request) (*field.Grid, error) {
	c.calls.Add(1)
	return c.Modifier.UndistortedGrid(ctx, req)
}

func TestCachedEngine(t *testing.T) {
	inner := &countingEngine{}
	cached := NewCachedEngine(inner)
	req := Request{Lens: testLens("poly5", 0.01, -0.02), CropFactor: 1.5, Width: 32, Height: 24, FocalLength: 50, Aperture: 2.8, Distance: 10}

	var wg sync.WaitGroup
	grids := make([]*field.Grid, 8)
	for i := range grids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := cached.UndistortedGrid(context.Background(), req)
			assert.NoError(t, err)
			grids[i] = g
		}(i)
	}
	wg.Wait()

	for _, g := range grids {
		assert.Same(t, grids[0], g)
	}
	assert.Equal(t, 1, cached.Len())
	assert.LessOrEqual(t, inner.calls.Load(), int32(len(grids)))

	before := inner.calls.Load()
	_, err := cached.UndistortedGrid(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, before, inner.calls.Load())

	// any tuple member is part of the key
	other := req
	other.Aperture = 4
	_, err = cached.UndistortedGrid(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Len())
	assert.Equal(t, before+1, inner.calls.Load())

	m, err := cached.FittedDistortion(req.Lens, 50)
	require.NoError(t, err)
	assert.Equal(t, radial.Poly5, m.Kind())
}

type gatedEngine struct {
	Modifier
	started chan struct{}
	release chan struct{}
}

func (g *gatedEngine) UndistortedGrid(ctx context.Context, req Request) (*field.Grid, error) {
	close(g.started)
	<-g.release
	return g.Modifier.UndistortedGrid(ctx, req)
}

func TestCachedEngineCancelledCallerDoesNotFailOthers(t *testing.T) {
	inner := &gatedEngine{started: make(chan struct{}), release: make(chan struct{})}
	cached := NewCachedEngine(inner)
	req := Request{Lens: testLens("poly3", 0.05), CropFactor: 1, Width: 16, Height: 12, FocalLength: 50}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.UndistortedGrid(first, req)
		firstErr <- err
	}()
	<-inner.started

	type result struct {
		grid *field.Grid
		err  error
	}
	second := make(chan result, 1)
	go func() {
		g, err := cached.UndistortedGrid(context.Background(), req)
		second <- result{g, err}
	}()

	cancel()
	assert.True(t, errors.Is(<-firstErr, context.Canceled))

	close(inner.release)
	res := <-second
	require.NoError(t, res.err)
	w, h := res.grid.Dims()
	assert.Equal(t, 16, w)
	assert.Equal(t, 12, h)
	assert.Equal(t, 1, cached.Len())
}

func TestFittedDistortionRejectsNonFiniteFocal(t *testing.T) {
	_, err := NewModifier().FittedDistortion(testLens("poly3", 0.05), math.NaN())
	assert.True(t, errors.Is(err, lensdb.ErrInvalidFocal))

	req := Request{Lens: testLens("poly3", 0.05), CropFactor: 1, Width: 8, Height: 8, FocalLength: math.Inf(1)}
	_, err = NewCachedEngine(NewModifier()).UndistortedGrid(context.Background(), req)
	assert.True(t, errors.Is(err, lensdb.ErrInvalidFocal))
}

func TestCachedEngineDoesNotCacheErrors(t *testing.T) {
	cached := NewCachedEngine(NewModifier())
	_, err := cached.UndistortedGrid(context.Background(), Request{CropFactor: 1, Width: -1, Height: 1})
	assert.Error(t, err)
	assert.Equal(t, 0, cached.Len())
}
