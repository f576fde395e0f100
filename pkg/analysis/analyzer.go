// Package analysis runs a complete lens distortion analysis: it resolves the
// camera and lens, computes the distance fields, renders heatmaps and
// distortion curves, and exports the SIP coefficients.
package analysis

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"

	"lensdist/internal/models"
	"lensdist/pkg/config"
	"lensdist/pkg/field"
	"lensdist/pkg/geometry"
	"lensdist/pkg/lensdb"
	"lensdist/pkg/radial"
	"lensdist/pkg/sensor"
	"lensdist/pkg/sip"
	"lensdist/pkg/visualization"
)

// Artifact is one output of a run. Err is set when that output failed;
// other artifacts are still produced.
type Artifact struct {
	Name string
	Path string
	Err  error
}

// Result collects what a run resolved and produced.
type Result struct {
	Camera      models.Camera
	Lens        models.Lens
	FocalLength float64
	Aperture    float64
	Model       radial.Model
	Geometry    sensor.Geometry

	// SIP is nil when the model has no SIP expansion.
	SIP *sip.CoefficientSet

	Artifacts []Artifact
}

// Failed returns the artifacts that could not be produced.
func (r *Result) Failed() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Analyzer runs the analysis described by a Config.
type Analyzer struct {
	cfg      *config.Config
	db       *lensdb.Database
	engine   geometry.Engine
	computer *field.Computer
	logger   *zap.SugaredLogger
}

// NewAnalyzer creates an analyzer. A nil logger discards all output.
func NewAnalyzer(cfg *config.Config, db *lensdb.Database, engine geometry.Engine, logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{
		cfg:      cfg,
		db:       db,
		engine:   engine,
		computer: field.NewComputer(cfg.Processing.Workers),
		logger:   logger,
	}
}

// Resolve looks up the camera, lens and fitted model without producing any
// output.
func (a *Analyzer) Resolve() (*Result, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	camera, err := a.db.ResolveCamera(a.cfg.Camera.Maker, a.cfg.Camera.Model)
	if err != nil {
		return nil, err
	}
	lens, err := a.db.ResolveLens(a.cfg.Lens.Maker, a.cfg.Lens.Model)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Camera:      camera,
		Lens:        lens,
		FocalLength: a.cfg.Shot.FocalLength,
		Aperture:    a.cfg.Shot.Aperture,
	}
	if res.FocalLength == 0 {
		res.FocalLength = lens.MinFocal
	}
	if res.Aperture == 0 {
		res.Aperture = lens.MinAperture
	}

	res.Model, err = a.engine.FittedDistortion(lens, res.FocalLength)
	if err != nil {
		return nil, errors.Wrapf(err, "fitted distortion of %s at %gmm", lens.ID(), res.FocalLength)
	}

	crop := lens.CropFactor
	if crop == 0 {
		crop = camera.CropFactor
	}
	res.Geometry, err = sensor.NewGeometry(a.cfg.Sensor.WidthMM, a.cfg.Sensor.HeightMM, crop)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Process resolves the inputs and writes every artifact into the output
// directory. An error is returned only when nothing can be produced;
// individual artifact failures are reported in the Result.
func (a *Analyzer) Process(ctx context.Context) (*Result, error) {
	res, err := a.Resolve()
	if err != nil {
		return nil, err
	}
	a.logger.Infow("resolved lens",
		"camera", res.Camera.Maker+" "+res.Camera.Model,
		"lens", res.Lens.ID(),
		"focal", res.FocalLength,
		"aperture", res.Aperture,
		"model", res.Model.String(),
	)

	opts := a.plotOptions()
	a.processFields(ctx, res, opts)
	a.processCurves(res, opts)
	a.processSIP(res)

	for _, art := range res.Failed() {
		a.logger.Warnw("artifact failed", "name", art.Name, "error", art.Err)
	}
	return res, nil
}

func (a *Analyzer) plotOptions() visualization.Options {
	opts := visualization.DefaultOptions()
	opts.Palette = a.cfg.Output.Palette
	if a.cfg.Output.PlotWidthCM > 0 && a.cfg.Output.PlotHeightCM > 0 {
		opts.Width = vg.Length(a.cfg.Output.PlotWidthCM) * vg.Centimeter
		opts.Height = vg.Length(a.cfg.Output.PlotHeightCM) * vg.Centimeter
	}
	return opts
}

func (a *Analyzer) path(name string) string {
	return filepath.Join(a.cfg.Output.Dir, name+"."+a.cfg.Output.Format)
}

type fieldSpec struct {
	name    string
	title   string
	compute func(*field.Grid) (*mat.Dense, error)
	scale   float64
}

func (a *Analyzer) processFields(ctx context.Context, res *Result, opts visualization.Options) {
	specs := []fieldSpec{
		{"dist", "distance (px)", a.computer.Distance, 1},
		{"dist_rel", "relative distance (%)", a.computer.RelativeDistance, 100},
		{"dist_rel_corner", "distance relative to corner (%)", a.computer.RelativeDistanceByCornerNorm, 100},
	}

	req := geometry.Request{
		Lens:        res.Lens,
		CropFactor:  res.Camera.CropFactor,
		Width:       a.cfg.Image.Width,
		Height:      a.cfg.Image.Height,
		FocalLength: res.FocalLength,
		Aperture:    res.Aperture,
		Distance:    a.cfg.Shot.Distance,
	}
	grid, err := a.engine.UndistortedGrid(ctx, req)
	if err != nil {
		for _, s := range specs {
			res.Artifacts = append(res.Artifacts, Artifact{Name: s.name, Path: a.path(s.name), Err: err})
		}
		return
	}

	for _, s := range specs {
		art := Artifact{Name: s.name, Path: a.path(s.name)}
		m, err := s.compute(grid)
		if err == nil {
			if s.scale != 1 {
				m = field.Scaled(s.scale, m)
			}
			sum := field.Summarize(m)
			a.logger.Debugw("field computed", "name", s.name,
				"min", sum.Min, "max", sum.Max, "mean", sum.Mean, "masked", sum.Masked)
			err = visualization.Heatmap(art.Path, s.title, m, opts)
		}
		art.Err = err
		res.Artifacts = append(res.Artifacts, art)
	}
}

func (a *Analyzer) processCurves(res *Result, opts visualization.Options) {
	relPath, derivPath := a.path("dist_rel_2"), a.path("deriv")
	curve, err := SampleCurve(res.Model, res.Geometry, a.cfg.Output.Samples)
	if err != nil {
		res.Artifacts = append(res.Artifacts,
			Artifact{Name: "dist_rel_2", Path: relPath, Err: err},
			Artifact{Name: "deriv", Path: derivPath, Err: err},
		)
		return
	}
	xmax := res.Geometry.HalfDiagonal

	err = visualization.LinePlot(relPath, curve.Radius, curve.Distortion, visualization.LineOptions{
		XLabel: "h (mm)",
		YLabel: "distortion D (%)",
		XMin:   0,
		XMax:   xmax,
		Grid:   true,
	}, opts)
	res.Artifacts = append(res.Artifacts, Artifact{Name: "dist_rel_2", Path: relPath, Err: err})

	err = visualization.LinePlot(derivPath, curve.Radius, curve.Derivative, visualization.LineOptions{
		XLabel:    "h (mm)",
		YLabel:    "dD/dh (1/mm)",
		XMin:      0,
		XMax:      xmax,
		Grid:      true,
		ShadeSign: true,
	}, opts)
	res.Artifacts = append(res.Artifacts, Artifact{Name: "deriv", Path: derivPath, Err: err})
}

func (a *Analyzer) processSIP(res *Result) {
	path := filepath.Join(a.cfg.Output.Dir, "sip.yaml")
	set, err := sip.FromModel(res.Model, a.cfg.Image.Width, a.cfg.Image.Height)
	if err == nil {
		res.SIP = &set
		err = writeKeywordsFile(path, set.Keywords())
	}
	res.Artifacts = append(res.Artifacts, Artifact{Name: "sip", Path: path, Err: err})
}
