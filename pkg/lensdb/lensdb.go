// Package lensdb loads the camera and lens calibration database and looks
// up the fitted distortion model of a lens at a given focal length.
package lensdb

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lensdist/internal/models"
	"lensdist/pkg/radial"
)

//go:embed default.yaml
var defaultDatabase []byte

var (
	// ErrNotFound is returned when no camera or lens matches a lookup.
	ErrNotFound = errors.New("not found in lens database")
	// ErrNoCalibration is returned for a lens without distortion calibrations.
	ErrNoCalibration = errors.New("lens has no distortion calibration")
	// ErrMixedModels is returned when the calibrations around a focal length
	// use different model kinds and cannot be interpolated.
	ErrMixedModels = errors.New("cannot interpolate between different distortion models")
	// ErrInvalidFocal is returned for a NaN or infinite focal length.
	ErrInvalidFocal = errors.New("invalid focal length")
)

// Database holds cameras and lenses. Both lists are kept sorted by maker
// and model so that every lookup is deterministic.
type Database struct {
	Cameras []models.Camera `yaml:"cameras"`
	Lenses  []models.Lens   `yaml:"lenses"`
}

// Default returns the database compiled into the binary.
func Default() (*Database, error) {
	return Parse(defaultDatabase)
}

// Load reads a database from a YAML file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading lens database")
	}
	return Parse(data)
}

// Parse decodes a YAML database and validates every calibration.
func Parse(data []byte) (*Database, error) {
	db := &Database{}
	if err := yaml.Unmarshal(data, db); err != nil {
		return nil, errors.Wrap(err, "error parsing lens database")
	}
	for _, l := range db.Lenses {
		for _, c := range l.Distortion {
			if _, err := calibrationModel(c); err != nil {
				return nil, errors.Wrapf(err, "lens %s at %gmm", l.ID(), c.Focal)
			}
		}
	}
	sort.SliceStable(db.Cameras, func(i, j int) bool {
		return less(db.Cameras[i].Maker, db.Cameras[i].Model, db.Cameras[j].Maker, db.Cameras[j].Model)
	})
	sort.SliceStable(db.Lenses, func(i, j int) bool {
		return less(db.Lenses[i].Maker, db.Lenses[i].Model, db.Lenses[j].Maker, db.Lenses[j].Model)
	})
	return db, nil
}

func less(makerA, modelA, makerB, modelB string) bool {
	if makerA != makerB {
		return makerA < makerB
	}
	return modelA < modelB
}

// FindCamera returns the camera with the given maker and model, compared
// case-insensitively.
func (db *Database) FindCamera(maker, model string) (models.Camera, bool) {
	for _, c := range db.Cameras {
		if strings.EqualFold(c.Maker, maker) && strings.EqualFold(c.Model, model) {
			return c, true
		}
	}
	return models.Camera{}, false
}

// FindLens returns the lens with the given maker and model, compared
// case-insensitively.
func (db *Database) FindLens(maker, model string) (models.Lens, bool) {
	for _, l := range db.Lenses {
		if strings.EqualFold(l.Maker, maker) && strings.EqualFold(l.Model, model) {
			return l, true
		}
	}
	return models.Lens{}, false
}

// FirstLensByMaker returns the lens of the given maker that sorts first by
// model name.
func (db *Database) FirstLensByMaker(maker string) (models.Lens, bool) {
	for _, l := range db.Lenses {
		if strings.EqualFold(l.Maker, maker) {
			return l, true
		}
	}
	return models.Lens{}, false
}

// ResolveLens finds a lens by maker and model, or the first lens of the
// maker when model is empty.
func (db *Database) ResolveLens(maker, model string) (models.Lens, error) {
	var (
		l  models.Lens
		ok bool
	)
	if model == "" {
		l, ok = db.FirstLensByMaker(maker)
	} else {
		l, ok = db.FindLens(maker, model)
	}
	if !ok {
		return models.Lens{}, errors.Wrapf(ErrNotFound, "lens %q %q", maker, model)
	}
	return l, nil
}

// ResolveCamera finds a camera by maker and model.
func (db *Database) ResolveCamera(maker, model string) (models.Camera, error) {
	c, ok := db.FindCamera(maker, model)
	if !ok {
		return models.Camera{}, errors.Wrapf(ErrNotFound, "camera %q %q", maker, model)
	}
	return c, nil
}

func calibrationModel(c models.DistortionCalibration) (radial.Model, error) {
	kind, err := radial.ParseKind(c.Model)
	if err != nil {
		return radial.Model{}, err
	}
	return radial.NewModel(kind, c.Terms...)
}
