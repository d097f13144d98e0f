// Copyright (c) Microsoft. All rights reserved.

// Package config loads dialchat settings from an optional .env file, an
// optional config file and DIAL_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Transport names accepted by the transport setting.
const (
	TransportManaged = "managed"
	TransportRaw     = "raw"
)

// DefaultSystemPrompt is used when the user supplies none.
const DefaultSystemPrompt = "You are an assistant who answers concisely and informatively."

// Config is the resolved process configuration.
type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	Deployment   string        `mapstructure:"deployment"`
	APIVersion   string        `mapstructure:"api_version"`
	Transport    string        `mapstructure:"transport"`
	Stream       bool          `mapstructure:"stream"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Log          LogConfig     `mapstructure:"log"`
}

// LogConfig controls the slog handler built by the CLI.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults for every key; also the set of keys bound to the environment.
var defaults = map[string]any{
	"endpoint":      "",
	"api_key":       "",
	"deployment":    "gpt-4o",
	"api_version":   "",
	"transport":     TransportManaged,
	"stream":        true,
	"timeout":       60 * time.Second,
	"system_prompt": DefaultSystemPrompt,
	"log.level":     "warn",
	"log.format":    "text",
}

// New returns a viper instance with defaults and DIAL_* environment
// binding, ready for flag binding before [Load].
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("DIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (when present) and path (when non-empty) into v and
// returns the validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the clients cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint is required (DIAL_ENDPOINT)"))
	}
	if strings.TrimSpace(c.Deployment) == "" {
		errs = append(errs, errors.New("deployment is required (DIAL_DEPLOYMENT)"))
	}
	switch c.Transport {
	case TransportManaged, TransportRaw:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportManaged, TransportRaw, c.Transport))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
