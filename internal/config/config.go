// Package config loads viewer and renderer settings from defaults, a JSON
// file and FRACTAL_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"github.com/OpenTraceLab/OpenFractal/pkg/fractal"
	"github.com/OpenTraceLab/OpenFractal/pkg/history"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "FRACTAL"

// Config stores persistent application settings. Environment names are
// derived from the field names, e.g. MaxIter reads FRACTAL_MAX_ITER.
type Config struct {
	Width      int    `json:"width" split_words:"true"`
	Height     int    `json:"height" split_words:"true"`
	MaxIter    int    `json:"max_iter" split_words:"true"`
	Workers    int    `json:"workers" split_words:"true"` // 0 means GOMAXPROCS
	Palette    string `json:"palette" split_words:"true"`
	History    int    `json:"history" split_words:"true"`
	PanHistory bool   `json:"pan_history" split_words:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Width:   1024,
		Height:  768,
		MaxIter: fractal.DefaultMaxIter,
		Palette: fractal.DefaultPalette,
		History: history.DefaultCapacity,
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: window size %dx%d must be positive", c.Width, c.Height)
	case c.MaxIter <= 0:
		return fmt.Errorf("config: max_iter %d must be positive", c.MaxIter)
	case c.Workers < 0:
		return fmt.Errorf("config: workers %d must not be negative", c.Workers)
	case c.History <= 0:
		return fmt.Errorf("config: history %d must be positive", c.History)
	}
	if _, err := fractal.PaletteByName(c.Palette); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	var configDir string
	// Use platform-appropriate config directory
	if appData := os.Getenv("APPDATA"); appData != "" {
		configDir = filepath.Join(appData, "OpenFractal")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config", "openfractal")
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the config from Path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to Path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config as indented JSON, creating the directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
