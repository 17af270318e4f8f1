// Package config loads process-wide configuration once at startup.
// The resulting value is immutable for the process lifetime and passed
// by reference into every component that needs it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all gateway configuration. Precedence when assembling:
// command-line flags > config file > environment variables.
type Config struct {
	// AllowedDirs is the ordered allow-list of directory roots.
	// Every path reaching a filesystem primitive must resolve inside
	// one of them.
	AllowedDirs []string `envconfig:"FSGATE_ALLOWED_DIRS" yaml:"allowed_dirs"`

	// WriteEnabled gates every mutating operation.
	WriteEnabled bool `envconfig:"FSGATE_WRITE_ENABLED" default:"false" yaml:"write_enabled"`

	// SymlinksAllowed permits operating on symbolic links.
	SymlinksAllowed bool `envconfig:"FSGATE_SYMLINKS_ALLOWED" default:"false" yaml:"symlinks_allowed"`

	// MaxFileSizeMB caps the size of files served by readFile.
	MaxFileSizeMB int `envconfig:"FSGATE_MAX_FILE_SIZE_MB" default:"10" yaml:"max_file_size_mb"`

	// ScriptTimeout bounds a single executeScript call.
	ScriptTimeout time.Duration `envconfig:"FSGATE_SCRIPT_TIMEOUT" default:"10s" yaml:"script_timeout"`

	Logging LogConfig `yaml:"logging"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"FSGATE_LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"FSGATE_LOG_DEV" default:"false" yaml:"development"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ApplyFile overlays values from a YAML config file onto cfg. Fields
// absent from the file keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if len(c.AllowedDirs) == 0 {
		return fmt.Errorf("no allowed directories configured")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("script timeout must be positive, got %s", c.ScriptTimeout)
	}
	return nil
}

// MaxFileBytes returns the read size cap in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Default returns the default configuration. Note that it carries no
// allowed directories and does not validate until some are set.
func Default() *Config {
	return &Config{
		WriteEnabled:    false,
		SymlinksAllowed: false,
		MaxFileSizeMB:   10,
		ScriptTimeout:   10 * time.Second,
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
