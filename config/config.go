package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Thresholds holds the per-entity acceptance bands. Two instances exist in
// a full config, one for subplots and one for plots.
type Thresholds struct {
	MinAreaM2          float64 `yaml:"min_area_m2"`
	MaxAreaM2          float64 `yaml:"max_area_m2"`
	RadiusM            float64 `yaml:"radius_m"`
	MaxVertices        int     `yaml:"max_vertices"`
	MaxLengthWidth     float64 `yaml:"max_length_width_ratio"`
	MaxProtrudingRatio float64 `yaml:"max_protruding_ratio"`
	MinOverlap         float64 `yaml:"min_overlap"`
	OverlapBufferM     float64 `yaml:"overlap_buffer_m"`
}

// Config is the full validation configuration for one partner batch.
type Config struct {
	Partner     string `yaml:"partner"`
	CountryISO3 string `yaml:"country_iso3"`

	AccuracyM         float64 `yaml:"accuracy_m"`
	AccuracyZeroValid bool    `yaml:"accuracy_zero_valid"`
	SkipTrustRatio    float64 `yaml:"skip_trust_ratio"`

	SimplifyToleranceM  float64 `yaml:"simplify_tolerance_m"`
	BufferAreaTolerance float64 `yaml:"buffer_area_tolerance"`
	CountryBufferM      float64 `yaml:"country_buffer_m"`

	Subplot Thresholds `yaml:"subplot"`
	Plot    Thresholds `yaml:"plot"`
}

// Default returns the configuration used when a batch carries no overrides.
func Default() *Config {
	return &Config{
		AccuracyM:           10,
		AccuracyZeroValid:   false,
		SkipTrustRatio:      4,
		SimplifyToleranceM:  0.1,
		BufferAreaTolerance: 0.005,
		CountryBufferM:      10000,
		Subplot: Thresholds{
			MinAreaM2:          450,
			MaxAreaM2:          750,
			RadiusM:            40,
			MaxVertices:        3,
			MaxLengthWidth:     2.0,
			MaxProtrudingRatio: 1.55,
			MinOverlap:         0.5,
			OverlapBufferM:     -5,
		},
		Plot: Thresholds{
			MinAreaM2:          1000,
			MaxAreaM2:          300000,
			RadiusM:            200,
			MaxVertices:        3,
			MaxLengthWidth:     2.0,
			MaxProtrudingRatio: 1.55,
			MinOverlap:         0.5,
			OverlapBufferM:     -5,
		},
	}
}

// Load reads a yaml config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	return Parse(data)
}

// Parse unmarshals yaml bytes on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	return cfg, nil
}

// ThresholdsFor picks the acceptance band by entity name.
func (c *Config) ThresholdsFor(entity string) (Thresholds, error) {
	switch entity {
	case "subplot":
		return c.Subplot, nil
	case "plot", "":
		return c.Plot, nil
	default:
		return Thresholds{}, fmt.Errorf("unknown entity %q, expected plot or subplot", entity)
	}
}
