// Package config provides configuration loading and management for Semforge.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Semforge configuration
type Config struct {
	Modeling ModelingConfig `yaml:"modeling"`
	Loader   LoaderConfig   `yaml:"loader"`
	NATS     NATSConfig     `yaml:"nats"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ModelingConfig configures the rules and schema defaults
type ModelingConfig struct {
	// RulesDir is where rules sheets are looked up (default: current directory)
	RulesDir string `yaml:"rules_dir"`
	// WatchDebounce is how long the watcher waits for more changes before reloading
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// LoaderConfig configures instance loading
type LoaderConfig struct {
	// InstanceSpace is the space loaded instances are written into
	InstanceSpace string `yaml:"instance_space"`
	// DirectRelationLimit caps direct-relation list properties
	DirectRelationLimit int `yaml:"direct_relation_limit"`
	// StopOnError aborts the load on the first per-instance error
	StopOnError bool `yaml:"stop_on_error"`
}

// NATSConfig configures the graph publishing connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
	// Subject is the stream subject instance records are published to
	Subject string `yaml:"subject"`
}

// LoggingConfig configures the slog handler
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Modeling: ModelingConfig{
			RulesDir:      "",
			WatchDebounce: 100 * time.Millisecond,
		},
		Loader: LoaderConfig{
			InstanceSpace:       "instances",
			DirectRelationLimit: 100,
			StopOnError:         false,
		},
		NATS: NATSConfig{
			URL:     "",
			Subject: "graph.ingest.instance",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Loader.InstanceSpace == "" {
		return fmt.Errorf("loader.instance_space is required")
	}
	if c.Loader.DirectRelationLimit <= 0 {
		return fmt.Errorf("loader.direct_relation_limit must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Modeling
	if other.Modeling.RulesDir != "" {
		c.Modeling.RulesDir = other.Modeling.RulesDir
	}
	if other.Modeling.WatchDebounce != 0 {
		c.Modeling.WatchDebounce = other.Modeling.WatchDebounce
	}

	// Loader
	if other.Loader.InstanceSpace != "" {
		c.Loader.InstanceSpace = other.Loader.InstanceSpace
	}
	if other.Loader.DirectRelationLimit != 0 {
		c.Loader.DirectRelationLimit = other.Loader.DirectRelationLimit
	}
	if other.Loader.StopOnError {
		c.Loader.StopOnError = true
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}
