// Package config loads the molo CLI configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration. Zero fields take defaults.
type Config struct {
	Server  string        `yaml:"server"`
	TokenDB string        `yaml:"token_db"`
	Timeout time.Duration `yaml:"timeout"`
	Seal    SealConfig    `yaml:"seal"`
}

// SealConfig controls client-side encryption of entry content.
type SealConfig struct {
	Enabled    bool `yaml:"enabled"`
	WorkFactor int  `yaml:"work_factor"`
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "molo", "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return Config{
		Server:  "http://localhost:8080",
		TokenDB: filepath.Join(dir, "molo", "session.db"),
		Timeout: 15 * time.Second,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.Server != "" {
		cfg.Server = file.Server
	}
	if file.TokenDB != "" {
		cfg.TokenDB = file.TokenDB
	}
	if file.Timeout > 0 {
		cfg.Timeout = file.Timeout
	}
	cfg.Seal = file.Seal
	return cfg, nil
}
