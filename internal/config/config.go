// Package config loads motionpath settings from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config holds editor and CLI settings.
type Config struct {
	// Playback defaults for new projects.
	TotalDuration float64 `yaml:"duration" toml:"duration"`
	FPS           int     `yaml:"fps" toml:"fps"`

	// Bake pipeline.
	Workers int `yaml:"workers" toml:"workers"`

	// Preview raster size in pixels.
	Width       int     `yaml:"width" toml:"width"`
	Height      int     `yaml:"height" toml:"height"`
	StrokeWidth float64 `yaml:"stroke_width" toml:"stroke_width"`

	LLM LLM `yaml:"llm" toml:"llm"`

	Verbose   bool `yaml:"verbose" toml:"verbose"`
	Debug     bool `yaml:"debug" toml:"debug"`
	Quiet     bool `yaml:"quiet" toml:"quiet"`
	ShowStats bool `yaml:"show_stats" toml:"show_stats"`

	BuildVersion string `yaml:"-" toml:"-"`
}

// LLM configures the suggestion provider.
type LLM struct {
	Provider  string  `yaml:"provider" toml:"provider"` // "anthropic" or "local"
	Model     string  `yaml:"model" toml:"model"`
	APIKeyEnv string  `yaml:"api_key_env" toml:"api_key_env"`
	BaseURL   string  `yaml:"base_url" toml:"base_url"`
	Retries   int     `yaml:"retries" toml:"retries"`
	Timeout   float64 `yaml:"timeout_seconds" toml:"timeout_seconds"`
	MaxTokens int     `yaml:"max_tokens" toml:"max_tokens"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TotalDuration: 5,
		FPS:           30,
		Workers:       4,
		Width:         800,
		Height:        600,
		StrokeWidth:   2,
		LLM: LLM{
			Provider:  "anthropic",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Retries:   3,
			Timeout:   120,
			MaxTokens: 4096,
		},
	}
}

// Load reads the file at path over Default. The decoder is chosen by the
// file extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or
// ".toml") over Default and validates the result.
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the tools cannot run with.
func (c Config) Validate() error {
	switch {
	case !(c.TotalDuration > 0):
		return fmt.Errorf("config: duration must be positive, got %v", c.TotalDuration)
	case c.FPS <= 0:
		return fmt.Errorf("config: fps must be positive, got %d", c.FPS)
	case c.Workers <= 0:
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: preview size %dx%d is invalid", c.Width, c.Height)
	case c.LLM.Retries < 1:
		return fmt.Errorf("config: llm retries must be at least 1, got %d", c.LLM.Retries)
	}
	switch c.LLM.Provider {
	case "anthropic", "local":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	return nil
}
