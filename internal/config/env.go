package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Env holds environment overrides. Empty fields are unset.
type Env struct {
	ConfigPath  string `env:"FREQLOG_CONFIG"`
	DBPath      string `env:"FREQLOG_DB_PATH"`
	LogLevel    string `env:"FREQLOG_LOG_LEVEL"`
	ChordsFile  string `env:"FREQLOG_CHORDS_FILE"`
	MetricsAddr string `env:"FREQLOG_METRICS_ADDR"`
}

// LoadEnv loads dotenvPath (when it exists) into the process environment and parses overrides.
// Variables already set in the environment win over the file.
func LoadEnv(dotenvPath string) (Env, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// Apply copies set environment overrides into the file config.
func (e Env) Apply(cfg *FileConfig) {
	if e.DBPath != "" {
		cfg.Store.Path = stringPtr(e.DBPath)
	}
	if e.LogLevel != "" {
		cfg.Log.Level = stringPtr(e.LogLevel)
	}
	if e.ChordsFile != "" {
		cfg.Chords.File = stringPtr(e.ChordsFile)
	}
	if e.MetricsAddr != "" {
		cfg.Metrics.Addr = stringPtr(e.MetricsAddr)
	}
}

func stringPtr(s string) *string {
	return &s
}
