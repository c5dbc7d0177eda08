// Package config provides configuration loading and management for
// fafscore. It handles loading configuration from YAML files and
// provides the default values established for ABCA4 fundus analysis.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"fafscore/pkg/geometry"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Geometry parameters, all expressed as multiples of the unit
	// distance (disc center to fovea center).
	Geometry struct {
		// DiscRadius is the exclusion radius around the optic disc.
		DiscRadius float64 `yaml:"discRadius"`

		// FoveaRadius is the exclusion radius around the fovea.
		FoveaRadius float64 `yaml:"foveaRadius"`

		// EllipseRadii are the (a, b) semi-axes of the inner ROI ellipse.
		EllipseRadii [2]float64 `yaml:"ellipseRadii"`

		// OuterEllipseRadii are the (a, b) semi-axes of the outer ROI ellipse.
		OuterEllipseRadii [2]float64 `yaml:"outerEllipseRadii"`

		// CroppingRadii bound the fovea-centered window used when
		// clipping score illustrations.
		CroppingRadii [2]float64 `yaml:"croppingRadii"`
	} `yaml:"geometry"`

	// Score parameters for the pixel scorer.
	Score struct {
		// WhitePixelWeight scales deviations brighter than background.
		WhitePixelWeight float64 `yaml:"whitePixelWeight"`

		// BlackPixelWeight scales deviations darker than background.
		BlackPixelWeight float64 `yaml:"blackPixelWeight"`

		// GradientCorrection is the additive background calibration
		// constant estimated offline from control histograms.
		GradientCorrection float64 `yaml:"gradientCorrection"`
	} `yaml:"score"`

	// Processing parameters.
	Processing struct {
		// NumCores specifies how many images to score concurrently.
		NumCores int `yaml:"numCores"`

		// MixtureComponents are the candidate component counts tried
		// when fitting intensity mixtures.
		MixtureComponents []int `yaml:"mixtureComponents"`

		// EMMaxIterations caps the expectation-maximization loop.
		EMMaxIterations int `yaml:"emMaxIterations"`

		// EMSeed fixes the mixture initialization for reproducibility.
		EMSeed uint64 `yaml:"emSeed"`
	} `yaml:"processing"`

	// Output parameters.
	Output struct {
		// WorkDir is where per-image artifacts (histograms, score
		// illustrations) are kept.
		WorkDir string `yaml:"workDir"`

		// SaveScoreMatrix enables rendering the per-pixel score matrix.
		SaveScoreMatrix bool `yaml:"saveScoreMatrix"`

		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	ratios := geometry.DefaultRatios()
	cfg.Geometry.DiscRadius = ratios.DiscRadius
	cfg.Geometry.FoveaRadius = ratios.FoveaRadius
	cfg.Geometry.EllipseRadii = ratios.EllipseRadii
	cfg.Geometry.OuterEllipseRadii = ratios.OuterEllipseRadii
	cfg.Geometry.CroppingRadii = [2]float64{3, 2}

	cfg.Score.WhitePixelWeight = 1
	cfg.Score.BlackPixelWeight = 10
	cfg.Score.GradientCorrection = 0

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.MixtureComponents = []int{1}
	cfg.Processing.EMMaxIterations = 10000
	cfg.Processing.EMSeed = 314

	cfg.Output.WorkDir = "fafscore_work"
	cfg.Output.SaveScoreMatrix = false
	cfg.Output.Verbose = true

	return cfg
}

// GeometryRatios converts the geometry section into the ratio
// configuration consumed by the geometry package.
func (c *Config) GeometryRatios() geometry.RatioConfig {
	return geometry.RatioConfig{
		DiscRadius:        c.Geometry.DiscRadius,
		FoveaRadius:       c.Geometry.FoveaRadius,
		EllipseRadii:      c.Geometry.EllipseRadii,
		OuterEllipseRadii: c.Geometry.OuterEllipseRadii,
	}
}

// Validate rejects configurations under which every image would fail
// the same way. It is checked once, before any image is processed.
func (c *Config) Validate() error {
	if err := c.GeometryRatios().Validate(); err != nil {
		return err
	}
	if c.Geometry.DiscRadius <= 0 || c.Geometry.FoveaRadius <= 0 {
		return fmt.Errorf("exclusion radii must be positive: disc=%g fovea=%g",
			c.Geometry.DiscRadius, c.Geometry.FoveaRadius)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if c.Processing.EMMaxIterations < 1 {
		return fmt.Errorf("emMaxIterations must be at least 1, got %d", c.Processing.EMMaxIterations)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
