// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Every knob works without a file so
// the service runs from env alone.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAI holds the chat-model connection settings. An empty APIKey
// disables the remote language model and the assistant runs on local
// extraction only.
type OpenAI struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
}

// Config is the full service configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"logLevel"`
	OpenAI   OpenAI `yaml:"openai"`
}

func defaults() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		OpenAI: OpenAI{
			Model: "gpt-4o-mini",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist), then applies environment overrides.
func Load(path string) (*Config, error) {
	conf := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	conf.applyEnv()
	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FORMEASE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("FORMEASE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
}

// RemoteEnabled reports whether the remote language model is configured.
func (c *Config) RemoteEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}

// SlogLevel maps the configured log level name to a slog level,
// defaulting to info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
