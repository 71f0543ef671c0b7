// Package config provides the tunable pipeline configuration with JSON
// persistence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"boardsight/internal/classify"
	"boardsight/internal/locate"
)

// Config gathers every tunable the pipeline consumes. Nothing here is
// hardcoded business logic; callers may override any field.
type Config struct {
	// Board location
	CannyLow        float32 `json:"canny_low"`
	CannyHigh       float32 `json:"canny_high"`
	MinBoardSize    int     `json:"min_board_size"`
	SizeStep        int     `json:"size_step"`
	Overlap         float64 `json:"overlap"`
	MinEdgeDensity  float64 `json:"min_edge_density"`
	AspectTolerance float64 `json:"aspect_tolerance"`
	MaxWorkingDim   int     `json:"max_working_dim"`

	// Normalization
	CanonicalSize int `json:"canonical_size"`

	// Classification
	EmptyVariance  float64 `json:"empty_variance"`
	MatchThreshold float64 `json:"match_threshold"`

	// Input handling
	MaxCaptureWidth int    `json:"max_capture_width"`
	TemplateDir     string `json:"template_dir"`
}

// Default returns the stock configuration.
func Default() Config {
	lp := locate.DefaultParams()
	cp := classify.DefaultParams()
	return Config{
		CannyLow:        lp.CannyLow,
		CannyHigh:       lp.CannyHigh,
		MinBoardSize:    lp.MinSize,
		SizeStep:        lp.SizeStep,
		Overlap:         lp.Overlap,
		MinEdgeDensity:  lp.MinEdgeDensity,
		AspectTolerance: lp.AspectTolerance,
		MaxWorkingDim:   lp.MaxWorkingDim,
		CanonicalSize:   512,
		EmptyVariance:   cp.EmptyVariance,
		MatchThreshold:  cp.MatchThreshold,
		MaxCaptureWidth: 1920,
		TemplateDir:     "templates",
	}
}

// LocateParams returns the locator view of the configuration.
func (c Config) LocateParams() locate.Params {
	return locate.Params{
		CannyLow:        c.CannyLow,
		CannyHigh:       c.CannyHigh,
		MinSize:         c.MinBoardSize,
		SizeStep:        c.SizeStep,
		Overlap:         c.Overlap,
		MinEdgeDensity:  c.MinEdgeDensity,
		AspectTolerance: c.AspectTolerance,
		MaxWorkingDim:   c.MaxWorkingDim,
	}
}

// ClassifyParams returns the classifier view of the configuration.
func (c Config) ClassifyParams() classify.Params {
	return classify.Params{
		EmptyVariance:  c.EmptyVariance,
		MatchThreshold: c.MatchThreshold,
	}
}

// Validate checks internal consistency.
func (c Config) Validate() error {
	if c.CanonicalSize <= 0 || c.CanonicalSize%8 != 0 {
		return fmt.Errorf("canonical_size %d must be a positive multiple of 8", c.CanonicalSize)
	}
	if c.Overlap < 0 || c.Overlap >= 1 {
		return fmt.Errorf("overlap %.2f must be in [0, 1)", c.Overlap)
	}
	if c.MinBoardSize <= 0 || c.SizeStep <= 0 {
		return fmt.Errorf("min_board_size and size_step must be positive")
	}
	return nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "boardsight", "config.json"), nil
}

// Load reads a configuration file. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("cannot parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save writes the configuration to disk, creating parent directories.
func (c Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}
