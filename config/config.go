// Package config provides configuration loading and validation for a HOT run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Validate for out-of-range parameters.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all run parameters.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Output  OutputConfig  `yaml:"output"`
	Archive ArchiveConfig `yaml:"archive"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// RunConfig holds the model parameters.
type RunConfig struct {
	Sites   int     `yaml:"sites"`    // N
	CharLen float64 `yaml:"char_len"` // L
	Tries   int     `yaml:"tries"`    // D
	Sparks  int     `yaml:"sparks"`   // K
	Seed    int64   `yaml:"seed"`     // 0 = time based
	Workers int     `yaml:"workers"`  // 0 = GOMAXPROCS
}

// OutputConfig controls which result files are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	TrialsCSV    bool   `yaml:"trials_csv"`
	IntervalsCSV bool   `yaml:"intervals_csv"`
	Manifest     bool   `yaml:"manifest"`
}

// ArchiveConfig holds the optional SQLite archive location.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FileTag string // N<N>_L<L>_D<D>, shared by all output file names
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	cfg.ComputeDerived()
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// Validate checks the run parameters. It must pass before any simulation work.
func (c *Config) Validate() error {
	r := c.Run
	switch {
	case r.Sites < 1:
		return fmt.Errorf("%w: sites must be >= 1, got %d", ErrInvalid, r.Sites)
	case !(r.CharLen > 0) || math.IsInf(r.CharLen, 0):
		return fmt.Errorf("%w: char_len must be a positive finite number, got %v", ErrInvalid, r.CharLen)
	case r.Tries < 1:
		return fmt.Errorf("%w: tries must be >= 1, got %d", ErrInvalid, r.Tries)
	case r.Sparks < 1:
		return fmt.Errorf("%w: sparks must be >= 1, got %d", ErrInvalid, r.Sparks)
	case r.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, r.Workers)
	}
	return nil
}

// ComputeDerived recalculates derived values. Call it after mutating Run.
func (c *Config) ComputeDerived() {
	c.Derived.FileTag = FileTag(c.Run.Sites, c.Run.CharLen, c.Run.Tries)
}

// FileTag formats the N/L/D triple used in output file names.
// Integral L values print without a decimal point (L2000, not L2000.0).
func FileTag(sites int, charLen float64, tries int) string {
	return fmt.Sprintf("N%d_L%s_D%d", sites, strconv.FormatFloat(charLen, 'f', -1, 64), tries)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
