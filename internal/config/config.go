// Package config holds the runtime configuration of the recognizer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Capture     CaptureConfig     `yaml:"capture"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Refinement  RefinementConfig  `yaml:"refinement"`
	Display     DisplayConfig     `yaml:"display"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CaptureConfig selects the frame source and the teaching window
type CaptureConfig struct {
	Device     string `yaml:"device"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	SampleSize int    `yaml:"sample_size"`
}

// RecognitionConfig holds descriptor matching parameters
type RecognitionConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	BackgroundTile    int     `yaml:"background_tile"`
	TileSize          int     `yaml:"tile_size"`
	Workers           int     `yaml:"workers"`
	Seed              int64   `yaml:"seed"`
}

// RefinementConfig controls watershed boundary refinement
type RefinementConfig struct {
	Enabled bool `yaml:"enabled"`
	Margin  int  `yaml:"margin"`
}

// DisplayConfig controls the live window
type DisplayConfig struct {
	Window      string  `yaml:"window"`
	BlendAlpha  float64 `yaml:"blend_alpha"`
	WaitMillis  int     `yaml:"wait_millis"`
	StatsPeriod int     `yaml:"stats_period"`
}

// LoggingConfig selects level and output format
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Device:     "0",
			Width:      640,
			Height:     480,
			SampleSize: 50,
		},
		Recognition: RecognitionConfig{
			DistanceThreshold: 0.05,
			BackgroundTile:    128,
			TileSize:          16,
			Workers:           0,
			Seed:              1,
		},
		Refinement: RefinementConfig{
			Enabled: false,
			Margin:  4,
		},
		Display: DisplayConfig{
			Window:      "input",
			BlendAlpha:  0.5,
			WaitMillis:  50,
			StatsPeriod: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults, so files only need the keys they change.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return NewValidationError("capture.width/height", fmt.Sprintf("%dx%d", c.Capture.Width, c.Capture.Height), "must be positive")
	}
	if c.Capture.SampleSize <= 0 || c.Capture.SampleSize > c.Capture.Width || c.Capture.SampleSize > c.Capture.Height {
		return NewValidationError("capture.sample_size", c.Capture.SampleSize, "must be positive and fit in the frame")
	}

	r := c.Recognition
	if r.DistanceThreshold < 0 || r.DistanceThreshold > 1 || r.DistanceThreshold != r.DistanceThreshold {
		return NewValidationError("recognition.distance_threshold", r.DistanceThreshold, "must be between 0 and 1")
	}
	if r.TileSize <= 0 {
		return NewValidationError("recognition.tile_size", r.TileSize, "must be positive")
	}
	if r.BackgroundTile <= 0 {
		return NewValidationError("recognition.background_tile", r.BackgroundTile, "must be positive")
	}
	if r.Workers < 0 {
		return NewValidationError("recognition.workers", r.Workers, "cannot be negative")
	}

	if c.Refinement.Margin < 0 {
		return NewValidationError("refinement.margin", c.Refinement.Margin, "cannot be negative")
	}

	if c.Display.BlendAlpha < 0 || c.Display.BlendAlpha > 1 {
		return NewValidationError("display.blend_alpha", c.Display.BlendAlpha, "must be between 0 and 1")
	}
	if c.Display.WaitMillis <= 0 {
		return NewValidationError("display.wait_millis", c.Display.WaitMillis, "must be positive")
	}

	return nil
}

// ThresholdPercent is the slider position matching the configured threshold.
func (c *Config) ThresholdPercent() int {
	return int(c.Recognition.DistanceThreshold*100 + 0.5)
}
