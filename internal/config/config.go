// Package config provides configuration loading and structs for the Kaimono server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Answer  AnswerConfig  `yaml:"answer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// StorageConfig holds the record snapshot location.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path" envconfig:"SNAPSHOT_PATH"`
}

// AnswerConfig tunes answer synthesis.
type AnswerConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" envconfig:"CONFIDENCE_THRESHOLD"`
	DefaultK            int     `yaml:"default_k" envconfig:"DEFAULT_K"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands the snapshot path. Returns an error
// if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, filepath.Dir(path))
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	ApplyDefaults(cfg)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, ".")
	return cfg
}

// applyEnv overrides file values with KAIMONO_* environment variables.
func applyEnv(cfg *Config) {
	envconfig.Process("KAIMONO_SERVER", &cfg.Server)
	envconfig.Process("KAIMONO_STORAGE", &cfg.Storage)
	envconfig.Process("KAIMONO_ANSWER", &cfg.Answer)
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to baseDir; other relative paths are relative to the home
// directory.
func expandPath(path string, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(baseDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
