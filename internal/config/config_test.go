package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Engine.NewWordThreshold != nil || cfg.Store.Path != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[engine]
new-word-threshold = 2.5
chord-char-threshold = 40
allowed-chars = "abc"
modifier-keys = ["ctrl", "alt"]
delete-word-modifiers = ["ctrl"]
min-length = 3
embed-chord-whitespace = false

[store]
path = "/tmp/freqlog.db"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Store.Path == nil || *fc.Store.Path != "/tmp/freqlog.db" {
		t.Fatalf("unexpected store path: %v", fc.Store.Path)
	}

	cfg := DefaultEngineConfig()
	fc.Engine.Apply(&cfg)
	if cfg.NewWordThreshold != 2500*time.Millisecond {
		t.Fatalf("unexpected threshold: %v", cfg.NewWordThreshold)
	}
	if cfg.ChordCharThreshold != 40*time.Millisecond {
		t.Fatalf("unexpected chord threshold: %v", cfg.ChordCharThreshold)
	}
	if len(cfg.AllowedChordChars) != 3 || len(cfg.ModifierKeys) != 2 || cfg.MinEntryLength != 3 || cfg.EmbedChordWhitespace {
		t.Fatalf("unexpected engine config: %+v", cfg)
	}
	if err := ValidateEngine(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[engine]\nthreshold = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDefaultEngineConfigIsValid(t *testing.T) {
	cfg := DefaultEngineConfig()
	if err := ValidateEngine(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	for _, r := range "aZ9'-_/\\~" {
		if _, ok := cfg.AllowedChordChars[r]; !ok {
			t.Fatalf("expected %q to be allowed", r)
		}
	}
	if _, ok := cfg.AllowedChordChars[' ']; ok {
		t.Fatalf("space must not be an allowed chord character")
	}
}

func TestValidateEngine(t *testing.T) {
	cases := map[string]func(c *model.EngineConfig){
		"zero new word threshold":  func(c *model.EngineConfig) { c.NewWordThreshold = 0 },
		"negative chord threshold": func(c *model.EngineConfig) { c.ChordCharThreshold = -time.Millisecond },
		"empty allowed chars":      func(c *model.EngineConfig) { c.AllowedChordChars = CharSet("") },
		"zero min length":          func(c *model.EngineConfig) { c.MinEntryLength = 0 },
		"zero poll interval":       func(c *model.EngineConfig) { c.PollInterval = 0 },
		"delete-word not modifier": func(c *model.EngineConfig) { c.DeleteWordModifiers = KeySet([]string{"shift"}) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			mutate(&cfg)
			if err := ValidateEngine(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("FREQLOG_LOG_LEVEL=debug\nFREQLOG_DB_PATH=/from/file.db\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("FREQLOG_DB_PATH", "/from/env.db")
	t.Setenv("FREQLOG_LOG_LEVEL", "")
	os.Unsetenv("FREQLOG_LOG_LEVEL")
	t.Setenv("FREQLOG_METRICS_ADDR", "127.0.0.1:9100")

	e, err := LoadEnv(dotenv)
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if e.DBPath != "/from/env.db" {
		t.Fatalf("process environment must win, got %q", e.DBPath)
	}
	if e.LogLevel != "debug" {
		t.Fatalf("expected level from .env, got %q", e.LogLevel)
	}

	var fc FileConfig
	e.Apply(&fc)
	if fc.Metrics.Addr == nil || *fc.Metrics.Addr != "127.0.0.1:9100" {
		t.Fatalf("unexpected metrics addr: %v", fc.Metrics.Addr)
	}
	if fc.Chords.File != nil {
		t.Fatalf("unset variables must not override")
	}
}

func TestLoadEnvMissingDotenv(t *testing.T) {
	if _, err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env must be ignored, got %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/config")
	if got := DefaultDBPath(); got != filepath.Join("/data", "freqlog", "freqlog.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/config", "freqlog", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
}
