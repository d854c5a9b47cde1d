// Package config provides configuration loading and access for the
// neutron source analysis.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all analysis configuration parameters.
type Config struct {
	Cubature CubatureConfig `yaml:"cubature"`
	Fuel     FuelConfig     `yaml:"fuel"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Output   OutputConfig   `yaml:"output"`
}

// CubatureConfig holds the adaptive integration controls.
type CubatureConfig struct {
	RelTol   float64 `yaml:"rel_tol"`   // Relative error tolerance
	AbsTol   float64 `yaml:"abs_tol"`   // Absolute tolerance in n/s (0 = relative only)
	MaxEvals int     `yaml:"max_evals"` // Integrand evaluation budget per pass
}

// FuelConfig holds the D-T mixture parameters.
type FuelConfig struct {
	TritiumFraction float64 `yaml:"tritium_fraction"` // Fraction of ion density that is tritium
}

// MeshConfig holds the output mesh resolution (cells per axis).
type MeshConfig struct {
	NR int `yaml:"nr"`
	NZ int `yaml:"nz"`
}

// OutputConfig holds run artifact settings.
type OutputConfig struct {
	Dir     string `yaml:"dir"`     // Output directory ("" = no artifacts)
	Heatmap bool   `yaml:"heatmap"` // Render the intensity map as a PNG
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Cubature.RelTol <= 0 && c.Cubature.AbsTol <= 0 {
		return fmt.Errorf("config: cubature needs a positive rel_tol or abs_tol")
	}
	if c.Cubature.MaxEvals < 17 {
		return fmt.Errorf("config: cubature max_evals=%d below a single rule application", c.Cubature.MaxEvals)
	}
	if c.Fuel.TritiumFraction < 0 || c.Fuel.TritiumFraction > 1 {
		return fmt.Errorf("config: tritium_fraction=%g outside [0,1]", c.Fuel.TritiumFraction)
	}
	if c.Mesh.NR < 1 || c.Mesh.NZ < 1 {
		return fmt.Errorf("config: mesh resolution %dx%d, want at least 1x1", c.Mesh.NR, c.Mesh.NZ)
	}
	return nil
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
