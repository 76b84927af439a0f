// Package config provides configuration loading and management for grainable.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input locations
	Input struct {
		// DataDir is the root of the data tree; relative paths below are resolved against it
		DataDir string `yaml:"dataDir"`

		// ImageDir holds one raster per sample, named <sample>.<ext>
		ImageDir string `yaml:"imageDir"`

		// SlicingTable is the CSV with name, px_left and px_right columns
		SlicingTable string `yaml:"slicingTable"`

		// BagList lists one sample identifier per line
		BagList string `yaml:"bagList"`
	} `yaml:"input"`

	// Tiling parameters
	Tiling struct {
		// SliceLength is the height of every slice window in pixels
		SliceLength int `yaml:"sliceLength"`

		// Overlap is the number of rows shared by consecutive windows
		Overlap int `yaml:"overlap"`
	} `yaml:"tiling"`

	// Denoising parameters
	Denoise struct {
		// SigmaColor is the intensity standard deviation of the bilateral filter
		SigmaColor float64 `yaml:"sigmaColor"`

		// SigmaSpatial is the spatial standard deviation of the bilateral filter in pixels
		SigmaSpatial float64 `yaml:"sigmaSpatial"`

		// ClipLimit bounds the contrast amplification of adaptive equalization (0..1)
		ClipLimit float64 `yaml:"clipLimit"`

		// TileGrid is the number of equalization tiles along each axis
		TileGrid int `yaml:"tileGrid"`

		// Bins is the histogram resolution of adaptive equalization
		Bins int `yaml:"bins"`
	} `yaml:"denoise"`

	// Ridge filter parameters
	Ridge struct {
		ScaleMin  float64 `yaml:"scaleMin"`
		ScaleMax  float64 `yaml:"scaleMax"`
		ScaleStep float64 `yaml:"scaleStep"`

		// Beta controls blob-versus-line discrimination
		Beta float64 `yaml:"beta"`

		// Gamma controls background suppression
		Gamma float64 `yaml:"gamma"`

		// SuppressFraction removes mask pixels whose ridge response exceeds
		// this fraction of the strongest response
		SuppressFraction float64 `yaml:"suppressFraction"`
	} `yaml:"ridge"`

	// Cleaning parameters
	Cleaning struct {
		// MinSize is the smallest component, in pixels, that survives cleaning
		MinSize int `yaml:"minSize"`
	} `yaml:"cleaning"`

	// Labeling parameters
	Labeling struct {
		// PixelsToUm is the scan resolution in micrometres per pixel.
		// It is recorded for downstream conversion; records stay in pixel units.
		PixelsToUm float64 `yaml:"pixelsToUm"`
	} `yaml:"labeling"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many slices are processed concurrently
		NumWorkers int `yaml:"numWorkers"`

		// Retries is how many times a unit failing with an I/O error is re-run
		Retries int `yaml:"retries"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// RecordDir receives <sample>/<sample>_<slice>.csv
		RecordDir string `yaml:"recordDir"`

		// ImageDir receives the preview images when SaveImages is set
		ImageDir string `yaml:"imageDir"`

		// SaveImages writes a false-colour label image and the raw crop per slice
		SaveImages bool `yaml:"saveImages"`

		// ImageFormat is "png" or "webp"
		ImageFormat string `yaml:"imageFormat"`

		// SaveIntermediaryResults writes every pipeline stage of every slice
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where stage images go when SaveIntermediaryResults is set
		IntermediaryDir string `yaml:"intermediaryDir"`
	} `yaml:"output"`

	// Depth profile parameters
	Profile struct {
		// StepSize is the depth step in pixels
		StepSize float64 `yaml:"stepSize"`

		// IntervalHalf is the half width of the averaging interval in pixels
		IntervalHalf float64 `yaml:"intervalHalf"`

		// PxToCm converts pixels to centimetres
		PxToCm float64 `yaml:"pxToCm"`

		// Axis is the record coordinate measured along the core, "y" or "x"
		Axis string `yaml:"axis"`

		// OutputDir receives <bag>_profile.csv
		OutputDir string `yaml:"outputDir"`
	} `yaml:"profile"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.DataDir = "data"
	cfg.Input.ImageDir = "raw-images"
	cfg.Input.SlicingTable = filepath.Join("csv", "slicing_param.csv")
	cfg.Input.BagList = "bag-list.txt"

	cfg.Tiling.SliceLength = 4000
	cfg.Tiling.Overlap = 200

	cfg.Denoise.SigmaColor = 0.05
	cfg.Denoise.SigmaSpatial = 15
	cfg.Denoise.ClipLimit = 0.03
	cfg.Denoise.TileGrid = 8
	cfg.Denoise.Bins = 256

	cfg.Ridge.ScaleMin = 1
	cfg.Ridge.ScaleMax = 3
	cfg.Ridge.ScaleStep = 1
	cfg.Ridge.Beta = 0.5
	cfg.Ridge.Gamma = 15
	cfg.Ridge.SuppressFraction = 0.05

	cfg.Cleaning.MinSize = 500

	cfg.Labeling.PixelsToUm = 5.0

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.Retries = 1

	cfg.Output.RecordDir = filepath.Join("data", "csv", "grain_properties")
	cfg.Output.ImageDir = filepath.Join("plots", "labeled_and_raw_images")
	cfg.Output.SaveImages = false
	cfg.Output.ImageFormat = "png"
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"

	cfg.Profile.StepSize = 200
	cfg.Profile.IntervalHalf = 100
	cfg.Profile.PxToCm = 0.0005
	cfg.Profile.Axis = "y"
	cfg.Profile.OutputDir = filepath.Join("data", "csv", "grain_size_depth")

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
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
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks the parameters that would otherwise make a stage misbehave
func (c *Config) Validate() error {
	var errs []error
	if c.Tiling.SliceLength <= 0 {
		errs = append(errs, fmt.Errorf("tiling.sliceLength must be positive, got %d", c.Tiling.SliceLength))
	}
	if c.Tiling.Overlap < 0 || c.Tiling.Overlap >= c.Tiling.SliceLength {
		errs = append(errs, fmt.Errorf("tiling.overlap must be in [0, sliceLength), got %d", c.Tiling.Overlap))
	}
	if c.Denoise.SigmaColor <= 0 || c.Denoise.SigmaSpatial <= 0 {
		errs = append(errs, errors.New("denoise sigmas must be positive"))
	}
	if c.Denoise.ClipLimit < 0 || c.Denoise.ClipLimit > 1 {
		errs = append(errs, fmt.Errorf("denoise.clipLimit must be in [0, 1], got %g", c.Denoise.ClipLimit))
	}
	if c.Denoise.TileGrid <= 0 || c.Denoise.Bins < 2 {
		errs = append(errs, errors.New("denoise.tileGrid must be positive and denoise.bins at least 2"))
	}
	if c.Ridge.ScaleMin <= 0 || c.Ridge.ScaleMax < c.Ridge.ScaleMin || c.Ridge.ScaleStep <= 0 {
		errs = append(errs, fmt.Errorf("ridge scales must satisfy 0 < scaleMin <= scaleMax and scaleStep > 0"))
	}
	if c.Ridge.Beta <= 0 || c.Ridge.Gamma <= 0 {
		errs = append(errs, errors.New("ridge.beta and ridge.gamma must be positive"))
	}
	if c.Cleaning.MinSize < 0 {
		errs = append(errs, fmt.Errorf("cleaning.minSize must not be negative, got %d", c.Cleaning.MinSize))
	}
	if c.Processing.NumWorkers <= 0 {
		errs = append(errs, fmt.Errorf("processing.numWorkers must be positive, got %d", c.Processing.NumWorkers))
	}
	if c.Output.ImageFormat != "png" && c.Output.ImageFormat != "webp" {
		errs = append(errs, fmt.Errorf("output.imageFormat must be png or webp, got %q", c.Output.ImageFormat))
	}
	if c.Profile.StepSize <= 0 {
		errs = append(errs, fmt.Errorf("profile.stepSize must be positive, got %g", c.Profile.StepSize))
	}
	if c.Profile.IntervalHalf < 0 {
		errs = append(errs, fmt.Errorf("profile.intervalHalf must not be negative, got %g", c.Profile.IntervalHalf))
	}
	if c.Profile.Axis != "x" && c.Profile.Axis != "y" {
		errs = append(errs, fmt.Errorf("profile.axis must be x or y, got %q", c.Profile.Axis))
	}
	return errors.Join(errs...)
}

// ResolveInput joins a configured input path with the data directory unless it is absolute
func (c *Config) ResolveInput(p string) string {
	if filepath.IsAbs(p) || c.Input.DataDir == "" {
		return p
	}
	return filepath.Join(c.Input.DataDir, p)
}
