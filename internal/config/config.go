package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents find-history configuration
type HistoryConfig struct {
	// Enabled turns on recording of locate runs. Off by default so plain
	// runs leave the filesystem untouched.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database. Empty means the default
	// location under the pagecat home directory.
	DBPath string `yaml:"db_path"`

	// MaxRuns is the number of recorded runs to retain (0 = unlimited)
	MaxRuns int `yaml:"max_runs"`
}

// Config represents pagecat configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// History contains find-history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "",
			MaxRuns: 50,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlCfg Config
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	// Merge history config - need to check whether the section was provided
	// at all, since "enabled: false" and absent must both keep the default
	// but an explicit "max_runs: 0" must stick.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			history := yamlCfg.History
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = history.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				// Explicitly set db_path, even if empty string
				cfg.History.DBPath = history.DBPath
			}
			if _, exists := historyMap["max_runs"]; exists {
				cfg.History.MaxRuns = history.MaxRuns
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .pagecat/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".pagecat", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(logLevel *string, historyDBPath *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if historyDBPath != nil {
		c.History.DBPath = *historyDBPath
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	// Validate log_level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Validate history configuration
	if c.History.MaxRuns < 0 {
		return fmt.Errorf("history.max_runs must be >= 0, got %d", c.History.MaxRuns)
	}

	return nil
}
