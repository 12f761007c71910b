// Package config loads usdrename.yaml.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "usdrename.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendLoam   = "loam"
)

// Config is the usdrename configuration.
type Config struct {
	// Layers is the layer stack to open, strongest first.
	Layers []string `mapstructure:"layers"`

	// EditTarget selects the layer receiving edits. Empty means the strongest layer.
	EditTarget string `mapstructure:"edit_target"`

	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	UI      UIConfig      `mapstructure:"ui"`
}

// StoreConfig selects where layers are persisted.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis layer store and locker.
type RedisConfig struct {
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// SessionConfig bounds editing sessions.
type SessionConfig struct {
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	HistoryDepth int           `mapstructure:"history_depth"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures `usdrename serve`.
type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
}

// UIConfig holds terminal rendering preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `mapstructure:"accent"`
	// CodeTheme is the glamour style used by inspect, e.g. "dark" or "notty".
	CodeTheme string `mapstructure:"code_theme"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(".usdrename", "layers"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "usdrename:layer:",
			},
		},
		Session: SessionConfig{
			LockTTL: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Metrics: true,
		},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := Decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays raw onto cfg. Durations accept strings such as "30s"; scalar
// values are weakly typed so "8" decodes into an int.
func Decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendLoam:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Session.HistoryDepth < 0 {
		return fmt.Errorf("history_depth cannot be negative")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
