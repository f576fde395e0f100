package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 36.0, cfg.Sensor.WidthMM)
	assert.Equal(t, 24.0, cfg.Sensor.HeightMM)
	assert.Greater(t, cfg.Processing.Workers, 0)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lens:
  maker: Nikon
  model: Nikkor 28mm f/2.8D AF
image:
  width: 4256
  height: 2832
output:
  format: png
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Nikon", cfg.Lens.Maker)
	assert.Equal(t, 4256, cfg.Image.Width)
	assert.Equal(t, "png", cfg.Output.Format)
	// untouched sections keep their defaults
	assert.Equal(t, "NIKON D3S", cfg.Camera.Model)
	assert.Equal(t, 100, cfg.Output.Samples)
}

func TestLoadConfigParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: ["), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no camera", func(c *Config) { c.Camera.Model = "" }},
		{"no lens maker", func(c *Config) { c.Lens.Maker = "" }},
		{"zero width", func(c *Config) { c.Image.Width = 0 }},
		{"negative sensor", func(c *Config) { c.Sensor.HeightMM = -1 }},
		{"negative focal", func(c *Config) { c.Shot.FocalLength = -28 }},
		{"NaN focal", func(c *Config) { c.Shot.FocalLength = math.NaN() }},
		{"infinite aperture", func(c *Config) { c.Shot.Aperture = math.Inf(1) }},
		{"NaN distance", func(c *Config) { c.Shot.Distance = math.NaN() }},
		{"one sample", func(c *Config) { c.Output.Samples = 1 }},
		{"short palette", func(c *Config) { c.Output.Palette = []string{"#fff"} }},
		{"bad format", func(c *Config) { c.Output.Format = "bmp" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
		})
	}
}
