// Package config provides configuration loading and management for lensdist.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lensdist/pkg/sensor"
	"lensdist/pkg/visualization"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Calibration database
	Database struct {
		// Path to a YAML lens database; empty uses the built-in database
		Path string `yaml:"path"`
	} `yaml:"database"`

	// Camera body the image was taken with
	Camera struct {
		Maker string `yaml:"maker"`
		Model string `yaml:"model"`
	} `yaml:"camera"`

	// Lens to analyse
	Lens struct {
		Maker string `yaml:"maker"`

		// Model may be empty to pick the first lens of Maker
		Model string `yaml:"model"`
	} `yaml:"lens"`

	// Shot parameters
	Shot struct {
		// FocalLength in mm; 0 uses the lens minimum
		FocalLength float64 `yaml:"focalLength"`

		// Aperture f-number; 0 uses the lens minimum
		Aperture float64 `yaml:"aperture"`

		// Distance to the subject in m
		Distance float64 `yaml:"distance"`
	} `yaml:"shot"`

	// Image size in pixels
	Image struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"image"`

	// Nominal sensor dimensions used for the normalized radius
	Sensor struct {
		WidthMM  float64 `yaml:"widthMM"`
		HeightMM float64 `yaml:"heightMM"`
	} `yaml:"sensor"`

	// Processing parameters
	Processing struct {
		// Workers is how many goroutines compute each distance field
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives all plots and the SIP keyword file
		Dir string `yaml:"dir"`

		// Format is the plot file extension: svg, png or pdf
		Format string `yaml:"format"`

		// Samples is the number of points on each line plot
		Samples int `yaml:"samples"`

		// Palette lists the diverging heatmap colours from low to high
		Palette []string `yaml:"palette"`

		// PlotWidthCM and PlotHeightCM size every figure
		PlotWidthCM  float64 `yaml:"plotWidthCM"`
		PlotHeightCM float64 `yaml:"plotHeightCM"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Camera.Maker = "NIKON CORPORATION"
	cfg.Camera.Model = "NIKON D3S"
	cfg.Lens.Maker = "Contax"

	// Shot defaults; zero focal length and aperture mean "lens minimum"
	cfg.Shot.Distance = 10

	// 3:2 aspect ratio
	cfg.Image.Width = 600
	cfg.Image.Height = 400

	cfg.Sensor.WidthMM = sensor.FullFrameWidth
	cfg.Sensor.HeightMM = sensor.FullFrameHeight

	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default

	cfg.Output.Dir = "plots"
	cfg.Output.Format = "svg"
	cfg.Output.Samples = 100
	cfg.Output.Palette = append([]string(nil), visualization.RdBu...)
	cfg.Output.PlotWidthCM = 16
	cfg.Output.PlotHeightCM = 12

	return cfg
}

// Validate checks the settings that cannot be defaulted at run time
func (cfg *Config) Validate() error {
	switch {
	case cfg.Camera.Maker == "" || cfg.Camera.Model == "":
		return errors.Wrap(ErrInvalid, "camera maker and model are required")
	case cfg.Lens.Maker == "":
		return errors.Wrap(ErrInvalid, "lens maker is required")
	case cfg.Image.Width <= 0 || cfg.Image.Height <= 0:
		return errors.Wrapf(ErrInvalid, "image size %dx%d", cfg.Image.Width, cfg.Image.Height)
	case cfg.Sensor.WidthMM <= 0 || cfg.Sensor.HeightMM <= 0:
		return errors.Wrapf(ErrInvalid, "sensor size %gx%g mm", cfg.Sensor.WidthMM, cfg.Sensor.HeightMM)
	case !finite(cfg.Shot.FocalLength, cfg.Shot.Aperture, cfg.Shot.Distance):
		return errors.Wrapf(ErrInvalid, "shot focal=%g aperture=%g distance=%g",
			cfg.Shot.FocalLength, cfg.Shot.Aperture, cfg.Shot.Distance)
	case cfg.Shot.FocalLength < 0 || cfg.Shot.Aperture < 0:
		return errors.Wrap(ErrInvalid, "focal length and aperture must not be negative")
	case cfg.Output.Samples < 2:
		return errors.Wrapf(ErrInvalid, "need at least 2 samples, got %d", cfg.Output.Samples)
	case len(cfg.Output.Palette) < 2:
		return errors.Wrap(ErrInvalid, "palette needs at least 2 colours")
	}
	switch cfg.Output.Format {
	case "svg", "png", "pdf", "eps", "jpg", "tif":
	default:
		return errors.Wrapf(ErrInvalid, "unsupported plot format %q", cfg.Output.Format)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
