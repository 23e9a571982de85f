package spectrum

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes an extraction run loaded from a YAML file.
type Config struct {
	// Cube is the path of the cube file to extract from.
	Cube string `yaml:"cube"`

	// Format forces a cube serialization convention, empty for discovery.
	Format string `yaml:"format,omitempty"`

	// Region is the on region.
	Region CircleRegion `yaml:"region"`

	// Center is the pointing center for the reflected background regions.
	Center struct {
		Lon float64 `yaml:"lon"`
		Lat float64 `yaml:"lat"`
	} `yaml:"center"`

	// MinOffRegions and LoThresholdPercent override the extraction
	// defaults when nonzero.
	MinOffRegions      int     `yaml:"min_off_regions,omitempty"`
	LoThresholdPercent float64 `yaml:"lo_threshold_percent,omitempty"`

	// EReco optionally rebins the spectrum onto these energy edges.
	EReco []float64 `yaml:"e_reco,omitempty"`

	// Containment is the on-region containment fraction, 0 for none.
	Containment float64 `yaml:"containment,omitempty"`

	// Output is the path the spectrum YAML is written to.
	Output string `yaml:"output"`
}

// LoadConfig reads and validates an extraction config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields an extraction cannot run without.
func (c *Config) Validate() error {
	if c.Cube == "" {
		return fmt.Errorf("config is missing the cube path")
	}
	if c.Region.Radius <= 0 {
		return fmt.Errorf("config region radius must be positive, got %g", c.Region.Radius)
	}
	if c.Output == "" {
		return fmt.Errorf("config is missing the output path")
	}
	return nil
}
