package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensdist/pkg/config"
)

func run(t *testing.T, args ...string) (*app, error) {
	t.Helper()
	root, a := newRootCmd()
	root.SetArgs(args)
	return a, root.Execute()
}

func TestInitConfigThenPlots(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lensdist.yaml")
	_, err := run(t, "--config", cfgPath, "init-config")
	require.NoError(t, err)

	written, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	written.Output.Dir = filepath.Join(dir, "plots")
	require.NoError(t, config.SaveConfig(written, cfgPath))

	a, err := run(t, "--config", cfgPath, "--width", "90", "--height", "60", "plots")
	require.NoError(t, err)
	assert.Equal(t, 90, a.cfg.Image.Width)
	_, err = os.Stat(filepath.Join(dir, "plots", "sip.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "plots", "dist.svg"))
	assert.NoError(t, err)
}

func TestSipAndCurve(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := run(t, "--config", cfgPath, "sip")
	require.NoError(t, err)
	_, err = run(t, "--config", cfgPath, "curve")
	require.NoError(t, err)

	// general PTLens terms have no SIP expansion
	_, err = run(t, "--config", cfgPath, "--lens-maker", "Nikon", "--lens-model", "Nikkor AF-S 24-70mm f/2.8G ED", "--focal", "24", "sip")
	assert.Error(t, err)
}

func TestOverrides(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	a, err := run(t, "--config", cfgPath, "--lens-maker", "Canon", "--focal", "30", "curve")
	require.NoError(t, err)
	assert.Equal(t, "Canon", a.cfg.Lens.Maker)
	assert.Equal(t, "", a.cfg.Lens.Model)
	assert.Equal(t, 30.0, a.cfg.Shot.FocalLength)

	// each command tree starts from its own state
	b, err := run(t, "--config", cfgPath, "curve")
	require.NoError(t, err)
	assert.NotEqual(t, "Canon", b.cfg.Lens.Maker)
	assert.Equal(t, "Canon", a.cfg.Lens.Maker)
}

func TestNonFiniteFocalIsRejected(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	for _, focal := range []string{"NaN", "+Inf"} {
		_, err := run(t, "--config", cfgPath, "--focal", focal, "curve")
		assert.True(t, errors.Is(err, config.ErrInvalid), focal)
	}

	yamlPath := filepath.Join(t.TempDir(), "nan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("shot:\n  focalLength: .nan\n"), 0644))
	_, err := run(t, "--config", yamlPath, "sip")
	assert.True(t, errors.Is(err, config.ErrInvalid))
}
