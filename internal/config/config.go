// Package config provides configuration loading and structs for the overlap finder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Scan    ScanConfig    `yaml:"scan"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ScanConfig holds similarity scan settings.
type ScanConfig struct {
	// Threshold is the minimum Jaccard score (percent) kept in results.
	Threshold float64 `yaml:"threshold"`
	// Workers is the fixed size of the scan worker pool.
	Workers int `yaml:"workers"`
}

// HistoryConfig holds the optional scan history database settings.
// An empty DatabasePath disables history recording.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig holds corpus watch settings. When enabled, server-run scans
// watch the corpus root and evict cached token sets for files that change
// mid-session.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands relative paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.History.DatabasePath != "" {
		cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
