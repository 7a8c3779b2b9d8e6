// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Engine  EngineSection  `toml:"engine"`
	Chords  ChordsSection  `toml:"chords"`
	Log     LogSection     `toml:"log"`
	Metrics MetricsSection `toml:"metrics"`
	Store   StoreSection   `toml:"store"`
}

// EngineSection maps segmentation settings. Nil fields keep the defaults.
type EngineSection struct {
	NewWordThreshold     *float64 `toml:"new-word-threshold"`
	ChordCharThreshold   *int     `toml:"chord-char-threshold"`
	AllowedChars         *string  `toml:"allowed-chars"`
	ModifierKeys         []string `toml:"modifier-keys"`
	DeleteWordModifiers  []string `toml:"delete-word-modifiers"`
	MinLength            *int     `toml:"min-length"`
	EmbedChordWhitespace *bool    `toml:"embed-chord-whitespace"`
}

// ChordsSection points at the known-chord list.
type ChordsSection struct {
	File *string `toml:"file"`
}

// LogSection maps logging settings.
type LogSection struct {
	Level *string `toml:"level"`
}

// MetricsSection maps the Prometheus endpoint.
type MetricsSection struct {
	Addr *string `toml:"addr"`
}

// StoreSection maps database settings.
type StoreSection struct {
	Path *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}
	return cfg, nil
}
