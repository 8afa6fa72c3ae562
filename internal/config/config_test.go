package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.05, cfg.Recognition.DistanceThreshold)
	assert.Equal(t, 16, cfg.Recognition.TileSize)
	assert.Equal(t, 128, cfg.Recognition.BackgroundTile)
	assert.Equal(t, 50, cfg.Capture.SampleSize)
	assert.Equal(t, 5, cfg.ThresholdPercent())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chroma.yaml")
	data := []byte("recognition:\n  distance_threshold: 0.2\n  tile_size: 32\nrefinement:\n  enabled: true\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Recognition.DistanceThreshold)
	assert.Equal(t, 32, cfg.Recognition.TileSize)
	assert.True(t, cfg.Refinement.Enabled)
	// untouched keys keep defaults
	assert.Equal(t, 640, cfg.Capture.Width)
	assert.Equal(t, 4, cfg.Refinement.Margin)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recognition:\n  distance_threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "recognition.distance_threshold", verr.Parameter)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"zero tile", func(c *Config) { c.Recognition.TileSize = 0 }, "recognition.tile_size"},
		{"negative threshold", func(c *Config) { c.Recognition.DistanceThreshold = -0.01 }, "recognition.distance_threshold"},
		{"sample larger than frame", func(c *Config) { c.Capture.SampleSize = 600 }, "capture.sample_size"},
		{"negative workers", func(c *Config) { c.Recognition.Workers = -1 }, "recognition.workers"},
		{"alpha above one", func(c *Config) { c.Display.BlendAlpha = 2 }, "display.blend_alpha"},
		{"negative margin", func(c *Config) { c.Refinement.Margin = -2 }, "refinement.margin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var verr *ValidationError
			require.True(t, errors.As(cfg.Validate(), &verr))
			assert.Equal(t, tt.param, verr.Parameter)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Capture.Device = "clip.mp4"
	path := filepath.Join(t.TempDir(), "nested", "out.yaml")

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
