package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Engine defaults.
const (
	DefaultNewWordThreshold   = 5 * time.Second
	DefaultChordCharThreshold = 30 * time.Millisecond
	DefaultMinEntryLength     = 2
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultAllowedChars       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789'-_/\\~"
)

// DefaultModifierKeys are held keys that keep characters out of the buffer.
var DefaultModifierKeys = []string{
	"ctrl", "ctrl_l", "ctrl_r",
	"alt", "alt_l", "alt_r", "alt_gr",
	"cmd", "cmd_l", "cmd_r",
}

// DefaultDeleteWordModifiers turn backspace into delete-previous-word.
var DefaultDeleteWordModifiers = []string{"ctrl", "ctrl_l", "ctrl_r", "cmd", "cmd_l", "cmd_r"}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() model.EngineConfig {
	return model.EngineConfig{
		NewWordThreshold:     DefaultNewWordThreshold,
		ChordCharThreshold:   DefaultChordCharThreshold,
		AllowedChordChars:    CharSet(DefaultAllowedChars),
		ModifierKeys:         KeySet(DefaultModifierKeys),
		DeleteWordModifiers:  KeySet(DefaultDeleteWordModifiers),
		MinEntryLength:       DefaultMinEntryLength,
		EmbedChordWhitespace: true,
		PollInterval:         DefaultPollInterval,
	}
}

// Apply overrides cfg with every field set in the section.
func (s EngineSection) Apply(cfg *model.EngineConfig) {
	if s.NewWordThreshold != nil {
		cfg.NewWordThreshold = Seconds(*s.NewWordThreshold)
	}
	if s.ChordCharThreshold != nil {
		cfg.ChordCharThreshold = time.Duration(*s.ChordCharThreshold) * time.Millisecond
	}
	if s.AllowedChars != nil {
		cfg.AllowedChordChars = CharSet(*s.AllowedChars)
	}
	if s.ModifierKeys != nil {
		cfg.ModifierKeys = KeySet(s.ModifierKeys)
	}
	if s.DeleteWordModifiers != nil {
		cfg.DeleteWordModifiers = KeySet(s.DeleteWordModifiers)
	}
	if s.MinLength != nil {
		cfg.MinEntryLength = *s.MinLength
	}
	if s.EmbedChordWhitespace != nil {
		cfg.EmbedChordWhitespace = *s.EmbedChordWhitespace
	}
}

// ValidateEngine checks the engine configuration before any capture starts.
func ValidateEngine(cfg model.EngineConfig) error {
	if cfg.NewWordThreshold <= 0 {
		return fmt.Errorf("%w: new word threshold must be > 0, got %v", ErrInvalidConfig, cfg.NewWordThreshold)
	}
	if cfg.ChordCharThreshold <= 0 {
		return fmt.Errorf("%w: chord char threshold must be > 0, got %v", ErrInvalidConfig, cfg.ChordCharThreshold)
	}
	if len(cfg.AllowedChordChars) == 0 {
		return fmt.Errorf("%w: allowed chord characters must not be empty", ErrInvalidConfig)
	}
	if cfg.MinEntryLength < 1 {
		return fmt.Errorf("%w: minimum entry length must be >= 1, got %d", ErrInvalidConfig, cfg.MinEntryLength)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be > 0, got %v", ErrInvalidConfig, cfg.PollInterval)
	}
	for key := range cfg.DeleteWordModifiers {
		if _, ok := cfg.ModifierKeys[key]; !ok {
			return fmt.Errorf("%w: delete-word modifier %q is not a modifier key", ErrInvalidConfig, key)
		}
	}
	return nil
}

// Seconds converts fractional seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// CharSet returns the set of runes in s.
func CharSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// KeySet returns the set of key names.
func KeySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
