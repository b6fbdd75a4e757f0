package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/hovershell/core/internal/shared/types"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig
	Surface   SurfaceConfig
	Terminal  TerminalConfig
	Triggers  []types.TriggerBinding `ignored:"true"`
	Providers []types.Provider       `ignored:"true"`
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds API server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8777" yaml:"port"`
	Host string `envconfig:"HOST" default:"127.0.0.1" yaml:"host"`
}

// SurfaceConfig holds the visible surface geometry and transition tuning.
type SurfaceConfig struct {
	ScreenWidth     int     `envconfig:"SCREEN_WIDTH" default:"1920" yaml:"screen_width"`
	ScreenHeight    int     `envconfig:"SCREEN_HEIGHT" default:"1080" yaml:"screen_height"`
	HeightFraction  float64 `envconfig:"HEIGHT_FRACTION" default:"0.45" yaml:"height_fraction"`
	MinHeightFrac   float64 `envconfig:"MIN_HEIGHT_FRACTION" default:"0.2" yaml:"min_height_fraction"`
	MaxHeightFrac   float64 `envconfig:"MAX_HEIGHT_FRACTION" default:"0.9" yaml:"max_height_fraction"`
	SettleTimeoutMs uint    `envconfig:"SETTLE_TIMEOUT_MS" default:"250" yaml:"settle_timeout_ms"`
	DebounceMs      uint    `envconfig:"DEBOUNCE_MS" default:"50" yaml:"debounce_ms"`
}

// TerminalConfig holds per-session defaults.
type TerminalConfig struct {
	Shell            string `envconfig:"SHELL_PATH" default:"" yaml:"shell"`
	WorkingDirectory string `envconfig:"WORKDIR" default:"" yaml:"working_directory"`
	ScrollbackLimit  int    `envconfig:"SCROLLBACK_LIMIT" default:"10000" yaml:"scrollback_limit"`
	HistoryMax       int    `envconfig:"HISTORY_MAX" default:"1000" yaml:"history_max_entries"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds per-IP API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// document mirrors the on-disk YAML layout. Scalars are pointers so an absent
// field is distinguishable from an explicit zero and never clobbers the
// layered value underneath.
type document struct {
	Server struct {
		Port *string `yaml:"port"`
		Host *string `yaml:"host"`
	} `yaml:"server"`
	Surface struct {
		ScreenWidth     *int     `yaml:"screen_width"`
		ScreenHeight    *int     `yaml:"screen_height"`
		HeightFraction  *float64 `yaml:"height_fraction"`
		MinHeightFrac   *float64 `yaml:"min_height_fraction"`
		MaxHeightFrac   *float64 `yaml:"max_height_fraction"`
		SettleTimeoutMs *uint    `yaml:"settle_timeout_ms"`
		DebounceMs      *uint    `yaml:"debounce_ms"`
	} `yaml:"surface"`
	Terminal struct {
		Shell            *string `yaml:"shell"`
		WorkingDirectory *string `yaml:"working_directory"`
		ScrollbackLimit  *int    `yaml:"scrollback_limit"`
		HistoryMax       *int    `yaml:"history_max_entries"`
	} `yaml:"terminal"`
	Triggers  []types.TriggerBinding `yaml:"triggers"`
	Providers []types.Provider       `yaml:"providers"`
	Logging   struct {
		Level       *string `yaml:"level"`
		Development *bool   `yaml:"development"`
	} `yaml:"logging"`
	RateLimit struct {
		RequestsPerSecond *int  `yaml:"requests_per_second"`
		Burst             *int  `yaml:"burst"`
		Enabled           *bool `yaml:"enabled"`
	} `yaml:"rate_limit"`
}

// Load builds configuration in three layers: built-in defaults, environment
// variables (HOVERSHELL_* prefix), then the YAML document at path, which wins.
// Validation failure is fatal to startup; a config is never partially applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := envconfig.Process("HOVERSHELL", cfg); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, types.Validationf("failed to parse config: %v", err)
		}
		cfg.apply(&doc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to validated defaults.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration: alt+` toggle, esc quick-hide,
// a 450ms top-edge dwell, and no providers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8777", Host: "127.0.0.1"},
		Surface: SurfaceConfig{
			ScreenWidth:     1920,
			ScreenHeight:    1080,
			HeightFraction:  0.45,
			MinHeightFrac:   0.2,
			MaxHeightFrac:   0.9,
			SettleTimeoutMs: 250,
			DebounceMs:      50,
		},
		Terminal: TerminalConfig{ScrollbackLimit: 10000, HistoryMax: 1000},
		Triggers: []types.TriggerBinding{
			{Kind: types.TriggerHotkey, Toggle: "alt+`", QuickHide: "esc"},
			{Kind: types.TriggerEdgeDwell, Edge: types.EdgeTop, DwellMs: 450, Sensitivity: 1.0},
			{Kind: types.TriggerEdgeScroll, Edge: types.EdgeTop, Sensitivity: 1.0},
		},
		Logging:   LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 200, Enabled: true},
	}
}

func (c *Config) apply(doc *document) {
	merge(&c.Server.Port, doc.Server.Port)
	merge(&c.Server.Host, doc.Server.Host)

	merge(&c.Surface.ScreenWidth, doc.Surface.ScreenWidth)
	merge(&c.Surface.ScreenHeight, doc.Surface.ScreenHeight)
	merge(&c.Surface.HeightFraction, doc.Surface.HeightFraction)
	merge(&c.Surface.MinHeightFrac, doc.Surface.MinHeightFrac)
	merge(&c.Surface.MaxHeightFrac, doc.Surface.MaxHeightFrac)
	merge(&c.Surface.SettleTimeoutMs, doc.Surface.SettleTimeoutMs)
	merge(&c.Surface.DebounceMs, doc.Surface.DebounceMs)

	merge(&c.Terminal.Shell, doc.Terminal.Shell)
	merge(&c.Terminal.WorkingDirectory, doc.Terminal.WorkingDirectory)
	merge(&c.Terminal.ScrollbackLimit, doc.Terminal.ScrollbackLimit)
	merge(&c.Terminal.HistoryMax, doc.Terminal.HistoryMax)

	if doc.Triggers != nil {
		c.Triggers = doc.Triggers
	}
	if doc.Providers != nil {
		c.Providers = doc.Providers
	}

	merge(&c.Logging.Level, doc.Logging.Level)
	merge(&c.Logging.Development, doc.Logging.Development)

	merge(&c.RateLimit.RequestsPerSecond, doc.RateLimit.RequestsPerSecond)
	merge(&c.RateLimit.Burst, doc.RateLimit.Burst)
	merge(&c.RateLimit.Enabled, doc.RateLimit.Enabled)
}

func merge[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate rejects configurations that would violate core invariants.
func (c *Config) Validate() error {
	seen := make(map[types.TriggerKind]bool)
	for _, b := range c.Triggers {
		if seen[b.Kind] {
			return types.Validationf("duplicate trigger binding kind %q", b.Kind)
		}
		seen[b.Kind] = true

		switch b.Kind {
		case types.TriggerHotkey:
			if b.Toggle == "" {
				return types.Validationf("hotkey binding requires a toggle chord")
			}
		case types.TriggerEdgeDwell:
			if b.DwellMs == 0 {
				return types.Validationf("edge dwell threshold must be > 0")
			}
			fallthrough
		case types.TriggerEdgeScroll:
			switch b.Edge {
			case types.EdgeTop, types.EdgeBottom, types.EdgeLeft, types.EdgeRight:
			default:
				return types.Validationf("unknown edge %q for %s binding", b.Edge, b.Kind)
			}
		case types.TriggerMenuClick:
		default:
			return types.Validationf("unknown trigger kind %q", b.Kind)
		}
	}

	defaults := 0
	ids := make(map[string]bool)
	for _, p := range c.Providers {
		if p.ID == "" {
			return types.Validationf("provider id cannot be empty")
		}
		if ids[p.ID] {
			return types.Validationf("duplicate provider id %q", p.ID)
		}
		ids[p.ID] = true
		if p.Default && p.Enabled {
			defaults++
		}
	}
	if defaults > 1 {
		return types.Validationf("more than one enabled provider marked default")
	}

	if c.Terminal.ScrollbackLimit <= 0 {
		return types.Validationf("scrollback_limit must be > 0")
	}
	if c.Terminal.HistoryMax <= 0 {
		return types.Validationf("history_max_entries must be > 0")
	}
	if c.Surface.MinHeightFrac <= 0 || c.Surface.MaxHeightFrac > 1 ||
		c.Surface.MinHeightFrac >= c.Surface.MaxHeightFrac {
		return types.Validationf("surface height fractions must satisfy 0 < min < max <= 1")
	}
	return nil
}
