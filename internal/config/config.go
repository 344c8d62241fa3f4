package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8080
	DefaultRoot = "."
)

// Config holds the liveserve configuration parsed from liveserve.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LiveReload LiveReloadConfig `yaml:"live_reload"`
}

// ServerConfig holds the HTTP listener and site tree settings.
type ServerConfig struct {
	// Host is the interface to bind (default 0.0.0.0).
	Host string `yaml:"host"`

	// Port is the port the HTTP server listens on (default 8080).
	Port int `yaml:"port"`

	// Root is the site directory: files are served from <root>/pages and
	// <root>/static. Default ".".
	Root string `yaml:"root"`
}

// LiveReloadConfig controls file watching and browser reload.
type LiveReloadConfig struct {
	// Enabled turns the watcher and the reload WebSocket endpoint on.
	// Default true; disable for a plain static server.
	Enabled bool `yaml:"enabled"`

	// DebounceMS is an optional coalescing window in milliseconds. Events
	// arriving within the window collapse into a single reload. Zero (the
	// default) forwards every filesystem event as its own notification.
	DebounceMS int `yaml:"debounce_ms"`
}

// Addr returns the host:port string to listen on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Debounce returns the coalescing window as a duration.
func (l LiveReloadConfig) Debounce() time.Duration {
	return time.Duration(l.DebounceMS) * time.Millisecond
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
			Root: DefaultRoot,
		},
		LiveReload: LiveReloadConfig{
			Enabled: true,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	if cfg.Server.Root == "" {
		return fmt.Errorf("server.root must not be empty")
	}
	if cfg.LiveReload.DebounceMS < 0 {
		return fmt.Errorf("live_reload.debounce_ms must not be negative")
	}
	return nil
}
