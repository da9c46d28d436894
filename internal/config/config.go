// Package config resolves client settings from an optional YAML file and
// STOREFRONT_-prefixed environment variables, with per-environment endpoint
// fallbacks so a bare development checkout works against a local backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environments the client recognizes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Environment string         `koanf:"environment"`
	APIURL      string         `koanf:"api_url"`
	WSURL       string         `koanf:"ws_url"`
	Retry       RetryConfig    `koanf:"retry"`
	Realtime    RealtimeConfig `koanf:"realtime"`
	Token       TokenConfig    `koanf:"token"`
	Server      ServerConfig   `koanf:"server"`
}

type RetryConfig struct {
	MaxAttempts    int `koanf:"max_attempts"`
	InitialDelayMS int `koanf:"initial_delay_ms"`
	MaxDelayMS     int `koanf:"max_delay_ms"`
}

// InitialDelay returns the first backoff delay as a duration.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMS) * time.Millisecond
}

// MaxDelay returns the backoff ceiling as a duration.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}

type RealtimeConfig struct {
	ReconnectIntervalMS  int `koanf:"reconnect_interval_ms"`
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts"`
}

func (r RealtimeConfig) ReconnectInterval() time.Duration {
	return time.Duration(r.ReconnectIntervalMS) * time.Millisecond
}

type TokenConfig struct {
	// Path of the SQLite credential store. Empty keeps credentials in
	// memory only.
	StorePath string `koanf:"store_path"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// endpoint fallbacks per environment, used when api_url/ws_url are not set
// explicitly.
var endpointDefaults = map[string]struct{ api, ws string }{
	EnvDevelopment: {"http://localhost:3000/graphql", "ws://localhost:3000/ws"},
	EnvTest:        {"http://localhost:3000/graphql", "ws://localhost:3000/ws"},
	EnvProduction:  {"https://api.shopstream.io/graphql", "wss://api.shopstream.io/ws"},
}

// Load resolves configuration. Precedence, lowest to highest: built-in
// defaults, the YAML file at path (skipped when path is empty), then
// environment variables. Env keys use double underscore as the section
// separator, e.g. STOREFRONT_RETRY__MAX_ATTEMPTS.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Load environment variables
	if err := k.Load(env.Provider("STOREFRONT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "STOREFRONT_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Default values
	if !k.Exists("environment") {
		k.Set("environment", EnvDevelopment)
	}
	if !k.Exists("retry.max_attempts") {
		k.Set("retry.max_attempts", 3)
	}
	if !k.Exists("retry.initial_delay_ms") {
		k.Set("retry.initial_delay_ms", 300)
	}
	if !k.Exists("retry.max_delay_ms") {
		k.Set("retry.max_delay_ms", 3000)
	}
	if !k.Exists("realtime.reconnect_interval_ms") {
		k.Set("realtime.reconnect_interval_ms", 3000)
	}
	if !k.Exists("realtime.max_reconnect_attempts") {
		k.Set("realtime.max_reconnect_attempts", 5)
	}
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaults, ok := endpointDefaults[cfg.Environment]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q", cfg.Environment)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaults.api
	}
	if cfg.WSURL == "" {
		cfg.WSURL = defaults.ws
	}

	return &cfg, nil
}
