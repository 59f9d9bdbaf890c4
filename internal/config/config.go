// Package config loads the optional gitlane configuration file.
//
// The file lives at $XDG_CONFIG_HOME/gitlane/config.toml (or
// ~/.config/gitlane/config.toml) and sets defaults for command-line flags:
//
//	refs = "heads/*"
//	max_count = 500
//	color = "auto"
//	decorate = true
//	hash = false
//	cache_ttl = "12h"
//
//	[server]
//	addr = "127.0.0.1:7070"
//	redis_url = "redis://localhost:6379/0"
//	debounce = "100ms"
//
// A missing file is not an error. Unknown keys are, so typos do not go
// unnoticed.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "gitlane"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds file-level defaults.
type Config struct {
	Refs     string   `toml:"refs"`
	MaxCount int      `toml:"max_count"`
	Color    string   `toml:"color"`
	Decorate bool     `toml:"decorate"`
	Hash     bool     `toml:"hash"`
	CacheTTL Duration `toml:"cache_ttl"`
	Server   Server   `toml:"server"`
}

// Server configures `gitlane serve`.
type Server struct {
	Addr     string   `toml:"addr"`
	RedisURL string   `toml:"redis_url"`
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as a string such as "90s" or "12h".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Refs:     "*",
		Color:    ColorAuto,
		CacheTTL: Duration{24 * time.Hour},
		Server: Server{
			Addr:     "127.0.0.1:7070",
			Debounce: Duration{100 * time.Millisecond},
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of [Default]. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	if c.MaxCount < 0 {
		return fmt.Errorf("max_count must not be negative, got %d", c.MaxCount)
	}
	if c.CacheTTL.Duration < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.Server.Debounce.Duration < 0 {
		return fmt.Errorf("server.debounce must not be negative, got %s", c.Server.Debounce)
	}
	return nil
}
