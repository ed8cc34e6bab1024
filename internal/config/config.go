// Package config loads the engine configuration from YAML files with
// defaults and environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
}

// EngineConfig configures the update-execution engine.
type EngineConfig struct {
	// Collation selects the default string-comparison rules for removal
	// conditions.
	Collation CollationConfig `yaml:"collation"`
	// IndexedPaths are the dotted paths covered by secondary indexes,
	// used for index-impact reporting.
	IndexedPaths []string `yaml:"indexed_paths"`
	// ImmutablePaths are dotted paths updates are forbidden to modify.
	ImmutablePaths []string `yaml:"immutable_paths"`
}

// CollationConfig names a collator. An empty locale means byte-wise
// comparison; "simple_ci" ignores case without locale rules.
type CollationConfig struct {
	Locale          string `yaml:"locale"`
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// Load reads configuration from path, starting from defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv("STRATUM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("STRATUM_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return c.Logging.Validate()
}
