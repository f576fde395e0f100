package models

// Camera is a camera body entry of the calibration database
type Camera struct {
	// Maker is the manufacturer as written in image metadata
	Maker string `yaml:"maker"`

	// Model is the camera model as written in image metadata
	Model string `yaml:"model"`

	// CropFactor is the ratio of the full-frame diagonal to this sensor's diagonal
	CropFactor float64 `yaml:"cropFactor"`
}

// DistortionCalibration is one fitted distortion measurement of a lens
type DistortionCalibration struct {
	// Focal is the focal length in mm the terms were fitted at
	Focal float64 `yaml:"focal"`

	// Model is the radial model name: ptlens, poly3 or poly5
	Model string `yaml:"model"`

	// Terms are the fitted model terms in canonical order
	Terms []float64 `yaml:"terms"`
}

// Lens is a lens entry of the calibration database
type Lens struct {
	Maker string `yaml:"maker"`
	Model string `yaml:"model"`

	// CropFactor of the camera the lens was calibrated on
	CropFactor float64 `yaml:"cropFactor"`

	// Focal and aperture range
	MinFocal    float64 `yaml:"minFocal"`
	MaxFocal    float64 `yaml:"maxFocal"`
	MinAperture float64 `yaml:"minAperture"`

	// Distortion holds the calibrations, one per measured focal length
	Distortion []DistortionCalibration `yaml:"distortion"`
}

// ID identifies the lens in logs and cache keys
func (l Lens) ID() string {
	return l.Maker + "/" + l.Model
}
