// Package config provides configuration loading and management for sliceview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sliceview/pkg/colortable"
	"sliceview/pkg/render2d"
)

// ErrInvalidConfig is wrapped by every Validate error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Renderer parameters
	Renderer struct {
		// Orientation is the default slicing axis: x, y, z, sagittal, coronal or axial
		Orientation string `yaml:"orientation"`

		// Width and Height are the canvas size in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Radiological selects the radiological display convention
		Radiological bool `yaml:"radiological"`

		// SliceNavigators enables the shift-hover crosshair and readout
		SliceNavigators bool `yaml:"sliceNavigators"`
	} `yaml:"renderer"`

	// Display parameters
	Display struct {
		// Colortable names a built-in palette or an entry of Colortables
		// used for the volume; empty means grayscale windowing
		Colortable string `yaml:"colortable"`

		// LabelmapColortable names the palette used for the label overlay
		LabelmapColortable string `yaml:"labelmapColortable"`

		// LabelmapOpacity is the overlay opacity in [0,1]
		LabelmapOpacity float64 `yaml:"labelmapOpacity"`

		// Window overrides the display window [low, high] when set
		Window []float64 `yaml:"window,omitempty"`

		// AutoWindow sets the window to the given [low, high] quantiles
		AutoWindow []float64 `yaml:"autoWindow,omitempty"`

		// Threshold overrides the displayed intensity range when set
		Threshold []float64 `yaml:"threshold,omitempty"`

		// Parametric selects signed colortable normalization
		Parametric bool `yaml:"parametric"`
	} `yaml:"display"`

	// Volume parameters
	Volume struct {
		// Spacing is the voxel size in mm along I, J and K
		Spacing []float64 `yaml:"spacing"`
	} `yaml:"volume"`

	// Output parameters
	Output struct {
		// Format is the frame file format, png or jpg
		Format string `yaml:"format"`

		// JPEGQuality is the JPEG encoder quality
		JPEGQuality int `yaml:"jpegQuality"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Colortables holds custom tables as [index, r, g, b, a] rows, keyed by name
	Colortables map[string][][]float64 `yaml:"colortables,omitempty"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default renderer parameters
	cfg.Renderer.Orientation = "axial"
	cfg.Renderer.Width = 512
	cfg.Renderer.Height = 512
	cfg.Renderer.Radiological = false
	cfg.Renderer.SliceNavigators = false

	// Set default display parameters
	cfg.Display.Colortable = ""
	cfg.Display.LabelmapColortable = colortable.Categorical.String()
	cfg.Display.LabelmapOpacity = 1.0

	// Set default volume parameters
	cfg.Volume.Spacing = []float64{1, 1, 1}

	// Set default output parameters
	cfg.Output.Format = "png"
	cfg.Output.JPEGQuality = 90
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks value ranges and that every referenced colortable exists.
func (c *Config) Validate() error {
	if _, err := render2d.ParseOrientation(c.Renderer.Orientation); err != nil {
		return fmt.Errorf("%w: renderer.orientation: %w", ErrInvalidConfig, err)
	}
	if c.Renderer.Width <= 0 || c.Renderer.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidConfig, c.Renderer.Width, c.Renderer.Height)
	}

	if c.Display.LabelmapOpacity < 0 || c.Display.LabelmapOpacity > 1 {
		return fmt.Errorf("%w: display.labelmapOpacity %v outside [0,1]", ErrInvalidConfig, c.Display.LabelmapOpacity)
	}
	for name, r := range map[string][]float64{
		"display.window":     c.Display.Window,
		"display.autoWindow": c.Display.AutoWindow,
		"display.threshold":  c.Display.Threshold,
	} {
		if r != nil && (len(r) != 2 || r[0] > r[1]) {
			return fmt.Errorf("%w: %s must be [low, high], got %v", ErrInvalidConfig, name, r)
		}
	}
	if c.Display.Window != nil && c.Display.AutoWindow != nil {
		return fmt.Errorf("%w: display.window and display.autoWindow are exclusive", ErrInvalidConfig)
	}

	if len(c.Volume.Spacing) != 3 {
		return fmt.Errorf("%w: volume.spacing needs 3 values, got %d", ErrInvalidConfig, len(c.Volume.Spacing))
	}
	for _, s := range c.Volume.Spacing {
		if s <= 0 {
			return fmt.Errorf("%w: volume.spacing %v must be positive", ErrInvalidConfig, c.Volume.Spacing)
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalidConfig, c.Output.Format)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("%w: output.jpegQuality %d outside [1,100]", ErrInvalidConfig, c.Output.JPEGQuality)
	}

	for _, name := range []string{c.Display.Colortable, c.Display.LabelmapColortable} {
		if name == "" {
			continue
		}
		if _, err := c.ColorTable(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ColorTable resolves a colortable name: a custom table from Colortables
// wins over a built-in palette of the same name.
func (c *Config) ColorTable(name string) (*colortable.Table, error) {
	if rows, ok := c.Colortables[name]; ok {
		return colortable.FromRows(name, rows)
	}
	p, err := colortable.ParsePalette(name)
	if err != nil {
		return nil, err
	}
	return colortable.FromPalette(p)
}
