// Package config loads the client configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	API struct {
		// BaseURL is the REST collaborator root.
		BaseURL string `yaml:"base_url"`
		// Timeout bounds each request.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Auth struct {
		// URL is the identity provider root.
		URL string `yaml:"url"`
		// SessionFile overrides where the session is persisted.
		SessionFile string `yaml:"session_file"`
	} `yaml:"auth"`

	Features struct {
		// CallInitiation switches the manual call action on.
		CallInitiation bool `yaml:"call_initiation"`
	} `yaml:"features"`
}

// Default returns the shipped configuration.
func Default() Config {
	var cfg Config
	cfg.API.BaseURL = "https://app.refrain.ing"
	cfg.API.Timeout = 30 * time.Second
	cfg.Auth.URL = "https://app.refrain.ing"
	return cfg
}

// Load reads the config file at path, layered over the defaults. An empty
// path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
