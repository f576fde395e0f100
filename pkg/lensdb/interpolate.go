package lensdb

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"lensdist/internal/models"
	"lensdist/pkg/radial"
)

// InterpolateDistortion returns the distortion model of lens at the given
// focal length. Focal lengths outside the calibrated range use the nearest
// calibration; inside the range the terms of the two bracketing
// calibrations are interpolated linearly.
func InterpolateDistortion(lens models.Lens, focal float64) (radial.Model, error) {
	if math.IsNaN(focal) || math.IsInf(focal, 0) {
		return radial.Model{}, errors.Wrapf(ErrInvalidFocal, "lens %s: %g", lens.ID(), focal)
	}
	if len(lens.Distortion) == 0 {
		return radial.Model{}, errors.Wrapf(ErrNoCalibration, "lens %s", lens.ID())
	}

	cals := append([]models.DistortionCalibration(nil), lens.Distortion...)
	sort.SliceStable(cals, func(i, j int) bool { return cals[i].Focal < cals[j].Focal })

	if focal <= cals[0].Focal {
		return calibrationModel(cals[0])
	}
	last := cals[len(cals)-1]
	if focal >= last.Focal {
		return calibrationModel(last)
	}

	// cals[hi-1].Focal < focal < cals[hi].Focal
	hi := sort.Search(len(cals), func(i int) bool { return cals[i].Focal >= focal })
	upper := cals[hi]
	if upper.Focal == focal {
		return calibrationModel(upper)
	}
	lower := cals[hi-1]

	lm, err := calibrationModel(lower)
	if err != nil {
		return radial.Model{}, err
	}
	um, err := calibrationModel(upper)
	if err != nil {
		return radial.Model{}, err
	}
	if lm.Kind() != um.Kind() {
		return radial.Model{}, errors.Wrapf(ErrMixedModels, "lens %s: %s at %gmm, %s at %gmm",
			lens.ID(), lm.Kind(), lower.Focal, um.Kind(), upper.Focal)
	}

	t := (focal - lower.Focal) / (upper.Focal - lower.Focal)
	lt, ut := lm.Terms(), um.Terms()
	terms := make([]float64, len(lt))
	for i := range terms {
		terms[i] = lt[i] + t*(ut[i]-lt[i])
	}
	return radial.NewModel(lm.Kind(), terms...)
}
