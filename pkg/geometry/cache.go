package geometry

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"lensdist/internal/models"
	"lensdist/pkg/field"
	"lensdist/pkg/radial"
)

// CachedEngine memoizes grids by the full request tuple. Grids are never
// mutated after creation, so callers share the cached value. Concurrent
// requests for the same tuple wait for a single computation, which is not
// cancelled with any one caller; each caller stops waiting when its own
// context is done.
type CachedEngine struct {
	next Engine

	mu    sync.Mutex
	grids map[string]*field.Grid
	group singleflight.Group
}

// NewCachedEngine wraps next.
func NewCachedEngine(next Engine) *CachedEngine {
	return &CachedEngine{
		next:  next,
		grids: make(map[string]*field.Grid),
	}
}

func requestKey(req Request) string {
	return fmt.Sprintf("%s|%g|%d|%d|%g|%g|%g", req.Lens.ID(), req.CropFactor,
		req.Width, req.Height, req.FocalLength, req.Aperture, req.Distance)
}

// UndistortedGrid returns the cached grid for req, computing it on a miss.
func (c *CachedEngine) UndistortedGrid(ctx context.Context, req Request) (*field.Grid, error) {
	key := requestKey(req)

	c.mu.Lock()
	g, ok := c.grids[key]
	c.mu.Unlock()
	if ok {
		return g, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		g, err := c.next.UndistortedGrid(detached, req)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.grids[key] = g
		c.mu.Unlock()
		return g, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*field.Grid), nil
	}
}

// FittedDistortion is not cached; interpolation is cheap.
func (c *CachedEngine) FittedDistortion(lens models.Lens, focalLength float64) (radial.Model, error) {
	return c.next.FittedDistortion(lens, focalLength)
}

// Len returns the number of cached grids.
func (c *CachedEngine) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.grids)
}
