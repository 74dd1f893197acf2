// Package config holds the static wiring of the bridge: where the
// Sirepo server lives, where result files land, and how motor readings
// map onto remote parameter values.
//
// Config file locations (priority order):
//  1. $SRWBRIDGE_CONFIG
//  2. ./srwbridge.yaml
//  3. ~/.config/srwbridge/config.yaml
//  4. /etc/srwbridge/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full bridge configuration.
type Config struct {
	// Server is the Sirepo server address.
	Server string `yaml:"server"`
	// SimType is the simulation type authenticated against.
	SimType string `yaml:"sim_type"`
	// DataRoot is the directory result files are written under.
	DataRoot string `yaml:"data_root"`
	// UnitScale converts motor readings (SI) into remote parameter
	// values. The stock SRW beamlines expect millimeter-scale values.
	UnitScale float64 `yaml:"unit_scale"`
	// Database configures the resource registry.
	Database DatabaseConfig `yaml:"database"`
	// HTTPTimeout bounds individual Sirepo requests, e.g. "60s".
	HTTPTimeout string `yaml:"http_timeout"`
	// PollInterval is the delay between run-status polls, e.g. "1s".
	PollInterval string `yaml:"poll_interval"`
}

// DatabaseConfig locates the registry database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a local Sirepo server
func DefaultConfig() *Config {
	return &Config{
		Server:       "http://localhost:8000",
		SimType:      "srw",
		DataRoot:     "/tmp/data",
		UnitScale:    1000,
		Database:     DatabaseConfig{Path: "./srwbridge.db"},
		HTTPTimeout:  "60s",
		PollInterval: "1s",
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server == "" {
		c.Server = def.Server
	}
	if c.SimType == "" {
		c.SimType = def.SimType
	}
	if c.DataRoot == "" {
		c.DataRoot = def.DataRoot
	}
	if c.UnitScale == 0 {
		c.UnitScale = def.UnitScale
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.HTTPTimeout == "" {
		c.HTTPTimeout = def.HTTPTimeout
	}
	if c.PollInterval == "" {
		c.PollInterval = def.PollInterval
	}
}

// EffectiveHTTPTimeout parses HTTPTimeout, falling back to the default
// on malformed values.
func (c *Config) EffectiveHTTPTimeout() time.Duration {
	if d, err := time.ParseDuration(c.HTTPTimeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// EffectivePollInterval parses PollInterval, falling back to the
// default on malformed values.
func (c *Config) EffectivePollInterval() time.Duration {
	if d, err := time.ParseDuration(c.PollInterval); err == nil && d > 0 {
		return d
	}
	return time.Second
}
