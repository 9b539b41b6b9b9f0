package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, `
scoring:
  accept: 90
suppression:
  hue_ranges:
    - {min: 100, max: 130}
preview:
  enabled: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 90.0, cfg.Scoring.Accept)
	assert.Equal(t, def.Scoring.Partial, cfg.Scoring.Partial)
	assert.Equal(t, []HueRange{{Min: 100, Max: 130}}, cfg.Suppression.HueRanges)
	assert.Equal(t, def.Suppression.SaturationMin, cfg.Suppression.SaturationMin)
	assert.Equal(t, def.Enhancement, cfg.Enhancement)
	assert.False(t, cfg.Preview.Enabled)
	assert.Equal(t, def.Preview.JPEGQuality, cfg.Preview.JPEGQuality)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"thresholds":  "scoring: {accept: 40, partial: 60}",
		"hue":         "suppression: {hue_ranges: [{min: 20, max: 10}]}",
		"no hues":     "suppression: {hue_ranges: []}",
		"scale":       "enhancement: {scale: 0}",
		"tiles":       "enhancement: {clahe_tiles: 0}",
		"jpeg":        "preview: {jpeg_quality: 101}",
		"max pixels":  "input: {max_pixels: 0}",
		"not yaml":    "scoring: [unterminated",
		"wrong shape": "scoring: 12",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
