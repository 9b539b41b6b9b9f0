package ocr

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"
)

// HueRange is an inclusive hue interval on the 0-180 scale.
type HueRange struct {
	Min uint8 `yaml:"min"`
	Max uint8 `yaml:"max"`
}

// RGB is an opaque fill color.
type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// NRGBA returns the fill as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// InputConfig bounds what DecodeImage accepts.
type InputConfig struct {
	// MaxPixels caps width*height of a decoded photo, checked from the
	// image header before any pixel buffer is allocated.
	MaxPixels int `yaml:"max_pixels"`
}

// SuppressionConfig selects the pixels removed before enhancement.
type SuppressionConfig struct {
	HueRanges     []HueRange `yaml:"hue_ranges"`
	SaturationMin uint8      `yaml:"saturation_min"`
	ValueMin      uint8      `yaml:"value_min"`
	Fill          RGB        `yaml:"fill"`
	// DilateIterations grows the mask with a 3x3 structuring element.
	DilateIterations int `yaml:"dilate_iterations"`
}

// EnhancementConfig drives the scale/pad/gray/CLAHE/sharpen chain.
type EnhancementConfig struct {
	Scale         float64    `yaml:"scale"`
	Border        int        `yaml:"border"`
	Background    RGB        `yaml:"background"`
	CLAHETiles    int        `yaml:"clahe_tiles"`
	CLAHEClip     float64    `yaml:"clahe_clip"`
	SharpenKernel [9]float64 `yaml:"sharpen_kernel"`
	// MaxDimension caps the scaled width and height.
	MaxDimension int `yaml:"max_dimension"`
}

// ScoringConfig holds the tier thresholds in percent.
type ScoringConfig struct {
	Accept  float64 `yaml:"accept"`
	Partial float64 `yaml:"partial"`
}

// PreviewConfig controls the re-encoded debug image.
type PreviewConfig struct {
	Enabled     bool `yaml:"enabled"`
	JPEGQuality int  `yaml:"jpeg_quality"`
}

// Config is the single tuning surface of the validation pipeline.
type Config struct {
	Input       InputConfig       `yaml:"input"`
	Suppression SuppressionConfig `yaml:"suppression"`
	Enhancement EnhancementConfig `yaml:"enhancement"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Preview     PreviewConfig     `yaml:"preview"`
}

// DefaultConfig returns the deployment defaults: strongly saturated red is
// suppressed, images are enhanced 2.5x with a 40px border, and scores of 85
// and 50 split accept, partial and reject.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			MaxPixels: 40_000_000,
		},
		Suppression: SuppressionConfig{
			HueRanges:        []HueRange{{Min: 0, Max: 10}, {Min: 170, Max: 180}},
			SaturationMin:    70,
			ValueMin:         50,
			Fill:             RGB{255, 255, 255},
			DilateIterations: 1,
		},
		Enhancement: EnhancementConfig{
			Scale:         2.5,
			Border:        40,
			Background:    RGB{255, 255, 255},
			CLAHETiles:    8,
			CLAHEClip:     3.0,
			SharpenKernel: [9]float64{0, -1, 0, -1, 5, -1, 0, -1, 0},
			MaxDimension:  6000,
		},
		Scoring: ScoringConfig{
			Accept:  85,
			Partial: 50,
		},
		Preview: PreviewConfig{
			Enabled:     true,
			JPEGQuality: 90,
		},
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Input.MaxPixels < 1 {
		return fmt.Errorf("%w: max pixels must be >= 1", ErrInvalidConfig)
	}
	if len(c.Suppression.HueRanges) == 0 {
		return fmt.Errorf("%w: at least one hue range is required", ErrInvalidConfig)
	}
	for _, r := range c.Suppression.HueRanges {
		if r.Min > r.Max || r.Max > 180 {
			return fmt.Errorf("%w: hue range %d-%d outside 0-180", ErrInvalidConfig, r.Min, r.Max)
		}
	}
	if c.Suppression.DilateIterations < 0 {
		return fmt.Errorf("%w: dilate iterations must be >= 0", ErrInvalidConfig)
	}
	e := c.Enhancement
	if e.Scale <= 0 {
		return fmt.Errorf("%w: scale must be > 0", ErrInvalidConfig)
	}
	if e.Border < 0 {
		return fmt.Errorf("%w: border must be >= 0", ErrInvalidConfig)
	}
	if e.CLAHETiles < 1 {
		return fmt.Errorf("%w: clahe tiles must be >= 1", ErrInvalidConfig)
	}
	if e.CLAHEClip <= 0 {
		return fmt.Errorf("%w: clahe clip must be > 0", ErrInvalidConfig)
	}
	if e.MaxDimension < 1 {
		return fmt.Errorf("%w: max dimension must be >= 1", ErrInvalidConfig)
	}
	s := c.Scoring
	if s.Partial < 0 || s.Accept > 100 || s.Partial > s.Accept {
		return fmt.Errorf("%w: need 0 <= partial (%.2f) <= accept (%.2f) <= 100", ErrInvalidConfig, s.Partial, s.Accept)
	}
	if c.Preview.JPEGQuality < 1 || c.Preview.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality must be 1-100", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig overlays the YAML file at path on DefaultConfig. Keys absent
// from the file keep their defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
