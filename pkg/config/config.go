// Package config provides configuration loading and management for texmaps.
// It handles loading configuration from YAML files and environment variables
// and provides default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"

	"texmaps/pkg/pipeline"
)

// EnvPrefix marks environment variables that override configuration keys.
// Nested keys are separated by a double underscore, e.g.
// TEXMAPS__PROCESSING__WORKERS=4.
const EnvPrefix = "TEXMAPS__"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers bounds the number of tiles processed concurrently
		Workers int `yaml:"workers" koanf:"workers"`

		// TileSize is the edge length of the tiles used by color_to_normals
		TileSize int `yaml:"tile_size" koanf:"tile_size"`
	} `yaml:"processing" koanf:"processing"`

	// Options holds the default option value per operation name. Command line
	// flags take precedence over these.
	Options map[string]string `yaml:"options" koanf:"options"`

	// Output parameters
	Output struct {
		// Verbose prints progress ticks to stdout
		Verbose bool `yaml:"verbose" koanf:"verbose"`

		// SaveIntermediaryResults dumps the decoded and transformed planes
		SaveIntermediaryResults bool `yaml:"save_intermediary_results" koanf:"save_intermediary_results"`

		// IntermediaryDir is where the planes are written
		IntermediaryDir string `yaml:"intermediary_dir" koanf:"intermediary_dir"`
	} `yaml:"output" koanf:"output"`

	Logging struct {
		Level string `yaml:"level" koanf:"level"`
		JSON  bool   `yaml:"json" koanf:"json"`
	} `yaml:"logging" koanf:"logging"`

	Metrics struct {
		// Textfile is written in the Prometheus text format after each run.
		// Empty disables it.
		Textfile string `yaml:"textfile" koanf:"textfile"`
	} `yaml:"metrics" koanf:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.TileSize = 256

	// Operations without a default (lowres_to_highres) stay unset
	cfg.Options = make(map[string]string)
	for _, t := range pipeline.DefaultRegistry(pipeline.Params{}).Transforms() {
		if t.Default != "" {
			cfg.Options[string(t.Name)] = t.Default
		}
	}

	cfg.Output.Verbose = false
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"

	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file and the environment.
// A missing file is not an error; the defaults and environment still apply.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	envKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected at run time.
// Option values are checked by the pipeline when a run is requested.
func (c *Config) Validate() error {
	if c.Processing.Workers < 0 {
		return fmt.Errorf("processing.workers must be non-negative, got %d", c.Processing.Workers)
	}
	if c.Processing.TileSize < 0 {
		return fmt.Errorf("processing.tile_size must be non-negative, got %d", c.Processing.TileSize)
	}
	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// Option returns the configured option for operation, or "" if none is set.
func (c *Config) Option(operation string) string {
	return c.Options[operation]
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yamlv3.Marshal(cfg)
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
