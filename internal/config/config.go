// Package config provides configuration loading and structs for the Beacon server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/commonweal/beacon/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool                  `yaml:"debug"`
	Server  ServerConfig          `yaml:"server"`
	Storage StorageConfig         `yaml:"storage"`
	Search  SearchConfig          `yaml:"search"`
	Ranking ranking.RankingConfig `yaml:"ranking"`
}

// ServerConfig holds HTTP server settings. AuthToken, when set, grants
// bearer-token callers visibility of inactive services.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// StorageConfig holds paths for the service database, the search index,
// and the collections seed file.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	CollectionsPath string `yaml:"collections_path"`
}

// SearchConfig holds search, radius, and pagination settings.
type SearchConfig struct {
	DefaultRadiusMiles float64 `yaml:"default_radius_miles"`
	DefaultPerPage     int     `yaml:"default_per_page"`
	MaxPerPage         int     `yaml:"max_per_page"`
	MaxCandidates      int     `yaml:"max_candidates"`
	ScoringWorkers     int     `yaml:"scoring_workers"`
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

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.CollectionsPath = expandPath(cfg.Storage.CollectionsPath, configDir)

	return &cfg, nil
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
