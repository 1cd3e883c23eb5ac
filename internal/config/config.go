// Package config provides configuration loading for ReviewBoard.
// Values come from a YAML file, then a .env file, then the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ReviewBoard/internal/state"
)

// Config holds all configuration for ReviewBoard.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Decode DecodeConfig `yaml:"decode"`
	Tools  ToolsConfig  `yaml:"tools"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig locates the submission server.
type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type DecodeConfig struct {
	RenderScale   float64 `yaml:"render_scale"`
	MaxFileSizeMB int     `yaml:"max_file_size_mb"`
}

// ToolsConfig holds the tool defaults applied on every load.
type ToolsConfig struct {
	Color string  `yaml:"color"`
	Width float64 `yaml:"width"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file (optional), then the dotenv
// file (optional, never overriding variables already set), then applies
// environment overrides.
func Load(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Decode: DecodeConfig{
			RenderScale:   1.4,
			MaxFileSizeMB: 50,
		},
		Tools: ToolsConfig{
			Color: state.DefaultColor.Hex(),
			Width: state.DefaultStrokeWidth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("invalid server timeout: %s", c.Server.Timeout)
	}
	if c.Decode.RenderScale <= 0 {
		return fmt.Errorf("invalid render scale: %v", c.Decode.RenderScale)
	}
	if c.Decode.MaxFileSizeMB < 1 {
		return fmt.Errorf("invalid max file size: %d MB", c.Decode.MaxFileSizeMB)
	}
	if _, err := state.ParseColor(c.Tools.Color); err != nil {
		return fmt.Errorf("invalid tool color: %w", err)
	}
	if c.Tools.Width < state.MinStrokeWidth || c.Tools.Width > state.MaxStrokeWidth {
		return fmt.Errorf("tool width must be between %d and %d", state.MinStrokeWidth, state.MaxStrokeWidth)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// MaxFileBytes is the source payload limit in bytes.
func (c *Config) MaxFileBytes() int {
	return c.Decode.MaxFileSizeMB << 20
}

// ToolState returns the tool defaults for a fresh session.
func (c *Config) ToolState() state.ToolState {
	return state.NewToolState(state.MustParseColor(c.Tools.Color), c.Tools.Width)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REVIEWBOARD_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("REVIEWBOARD_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("REVIEWBOARD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.Timeout = d
		}
	}
	if v := os.Getenv("REVIEWBOARD_RENDER_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Decode.RenderScale = f
		}
	}
	if v := os.Getenv("REVIEWBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REVIEWBOARD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
