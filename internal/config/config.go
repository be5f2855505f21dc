// Package config provides configuration loading and structs for the cvsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/cvsearch/internal/match"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// IngestConfig holds CV directory ingest and watch settings.
type IngestConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// CleanText lowercases and strips punctuation from extracted text before it is stored for search.
	CleanText *bool `yaml:"clean_text"`
}

// RecursiveOrDefault returns whether to walk directories recursively; defaults to true when unset.
func (c *IngestConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// CleanTextOrDefault returns whether to clean extracted text; defaults to true when unset.
func (c *IngestConfig) CleanTextOrDefault() bool {
	if c.CleanText != nil {
		return *c.CleanText
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the applicant database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SearchConfig holds matching engine settings.
type SearchConfig struct {
	DefaultAlgorithm string `yaml:"default_algorithm"`
	DefaultTopN      int    `yaml:"default_top_n"`
	MaxTopN          int    `yaml:"max_top_n"`
	MaxDistance      *int   `yaml:"max_distance"`
	// Workers bounds how many CVs are scanned concurrently. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// DocumentTimeout bounds the scan of a single CV. 0 disables the limit.
	DocumentTimeout time.Duration `yaml:"document_timeout"`
}

// MaxDistanceOrDefault returns the fuzzy edit distance threshold; defaults to 2 when unset.
func (c *SearchConfig) MaxDistanceOrDefault() int {
	if c.MaxDistance != nil {
		return *c.MaxDistance
	}
	return DefaultMaxDistance
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Search.MaxDistance != nil && *c.Search.MaxDistance < 0 {
		return fmt.Errorf("invalid config: search.max_distance must not be negative")
	}
	if c.Search.DefaultTopN < 0 || c.Search.MaxTopN < 0 {
		return fmt.Errorf("invalid config: search top_n limits must not be negative")
	}
	if c.Search.Workers < 0 {
		return fmt.Errorf("invalid config: search.workers must not be negative")
	}
	if c.Search.DocumentTimeout < 0 {
		return fmt.Errorf("invalid config: search.document_timeout must not be negative")
	}
	if _, err := match.ParseAlgorithm(c.Search.DefaultAlgorithm); err != nil {
		return fmt.Errorf("invalid config: search.default_algorithm: %w", err)
	}
	return nil
}

// Save writes the config to path. Used for persisting ingest directory changes.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
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
