// Package config loads dleframe settings from a TOML file.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/bigbag/dleframe/internal/dle"
)

// Config holds codec and logging settings.
type Config struct {
	Mode           dle.Mode
	EscapeCR       bool
	RejectTrailing bool
	// Capacity is the output buffer size for encode/decode. Zero sizes the
	// buffer to fit.
	Capacity int
	LogLevel zerolog.Level
}

type fileConfig struct {
	Mode           string `toml:"mode"`
	EscapeCR       bool   `toml:"escape_cr"`
	RejectTrailing bool   `toml:"reject_trailing"`
	Capacity       int    `toml:"capacity"`
	LogLevel       string `toml:"log_level"`
}

// Default returns the built-in settings: escaped mode, buffers sized to fit,
// info logging.
func Default() Config {
	c := dle.DefaultCodec()
	return Config{
		Mode:           c.Mode,
		EscapeCR:       c.EscapeCR,
		RejectTrailing: c.RejectTrailing,
		LogLevel:       zerolog.InfoLevel,
	}
}

// Load reads path and applies the keys it defines on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("mode") {
		mode, err := dle.ParseMode(raw.Mode)
		if err != nil {
			return Config{}, fmt.Errorf("parse mode: %w", err)
		}
		cfg.Mode = mode
	}
	if meta.IsDefined("escape_cr") {
		cfg.EscapeCR = raw.EscapeCR
	}
	if meta.IsDefined("reject_trailing") {
		cfg.RejectTrailing = raw.RejectTrailing
	}
	if meta.IsDefined("capacity") {
		cfg.Capacity = raw.Capacity
	}
	if meta.IsDefined("log_level") {
		level, err := ParseLevel(raw.LogLevel)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Mode != dle.Escaped && c.Mode != dle.NonEscaped {
		return fmt.Errorf("invalid mode %v", c.Mode)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d", c.Capacity)
	}
	return nil
}

// Codec returns the codec described by c.
func (c Config) Codec() dle.Codec {
	return dle.Codec{
		Mode:           c.Mode,
		EscapeCR:       c.EscapeCR,
		RejectTrailing: c.RejectTrailing,
	}
}

// ParseLevel parses a zerolog level name. An empty name means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log_level: %w", err)
	}
	return level, nil
}
