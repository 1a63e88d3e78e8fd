// Package config loads the kbuilder configuration: defaults, then a
// YAML file, then KBUILDER_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the conventional config file location.
const DefaultPath = ".kbuilder.yml"

// Config is the top-level kbuilder configuration.
type Config struct {
	// Provider selects the text-generation capability for product
	// extraction: "openai" or "none" (heuristic only).
	Provider string `yaml:"provider" koanf:"provider"`
	Model    string `yaml:"model" koanf:"model"`
	// BaseURL overrides the provider endpoint (for compatible APIs).
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	// LLMTimeoutSeconds bounds each model call; extraction falls back
	// to heuristics when the deadline passes.
	LLMTimeoutSeconds int `yaml:"llm_timeout_seconds" koanf:"llm_timeout_seconds"`

	Output  string   `yaml:"output" koanf:"output"`
	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider:          "none",
		Model:             "gpt-4o-mini",
		LLMTimeoutSeconds: 30,
		Output:            "knowledge_base.json",
		Include:           []string{"**"},
		Exclude:           []string{},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KBUILDER_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("KBUILDER_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "KBUILDER_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[string]bool{
	"":       true,
	"none":   true,
	"openai": true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be none or openai", c.Provider)
	}
	if c.Provider == "openai" && c.Model == "" {
		return fmt.Errorf("model is required when provider is openai")
	}
	if c.LLMTimeoutSeconds < 0 {
		return fmt.Errorf("llm_timeout_seconds must be non-negative")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	return nil
}
