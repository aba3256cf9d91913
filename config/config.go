// Package config provides configuration loading and management for Semgate.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Semgate configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Registry  RegistryConfig  `yaml:"registry"`
	Ecosystem EcosystemConfig `yaml:"ecosystem"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	NATS      NATSConfig      `yaml:"nats"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	// Host is the listen address (default: 0.0.0.0)
	Host string `yaml:"host"`
	// Port is the listen port (default: 5000)
	Port int `yaml:"port"`
	// Path is the mount path of the gateway routes (default: /gw)
	Path string `yaml:"path"`
	// BaseURL is the externally visible base URL; derived from host,
	// port and path when empty
	BaseURL string `yaml:"base_url"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RegistryConfig configures the type/property registry collaborator
type RegistryConfig struct {
	// Endpoint is the registry's HTTP base URL
	Endpoint string `yaml:"endpoint"`
	// StaticFile points at a local YAML registry used instead of the
	// HTTP registry when set
	StaticFile string `yaml:"static_file"`
}

// EcosystemConfig configures the ecosystem definition source
type EcosystemConfig struct {
	// Path is the ecosystem definition file
	Path string `yaml:"path"`
	// Watch reloads the definition when the file changes
	Watch bool `yaml:"watch"`
	// DebounceDelay coalesces bursts of file events
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// UpstreamConfig configures outbound endpoint calls
type UpstreamConfig struct {
	// Timeout is the per-call HTTP timeout
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
	// Name is the connection name reported to the server
	Name string `yaml:"name"`
}

// CacheConfig configures the collector cache
type CacheConfig struct {
	// CollectorSize bounds the per-parameterization collector cache
	CollectorSize int `yaml:"collector_size"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Path:            "/gw",
			ShutdownTimeout: 10 * time.Second,
		},
		Registry: RegistryConfig{
			Endpoint: "http://localhost:5010",
		},
		Ecosystem: EcosystemConfig{
			Path:          "ecosystem.yaml",
			Watch:         false,
			DebounceDelay: 500 * time.Millisecond,
		},
		Upstream: UpstreamConfig{
			Timeout: 15 * time.Second,
		},
		NATS: NATSConfig{
			URL:  "",
			Name: "semgate",
		},
		Cache: CacheConfig{
			CollectorSize: 128,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Path == "" || c.Server.Path[0] != '/' {
		return fmt.Errorf("server.path must start with /")
	}
	if c.Server.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Server.BaseURL); err != nil {
			return fmt.Errorf("server.base_url is not a valid URL: %w", err)
		}
	}
	if c.Registry.Endpoint == "" && c.Registry.StaticFile == "" {
		return fmt.Errorf("registry.endpoint or registry.static_file is required")
	}
	if c.Ecosystem.Path == "" {
		return fmt.Errorf("ecosystem.path is required")
	}
	if c.Cache.CollectorSize <= 0 {
		return fmt.Errorf("cache.collector_size must be positive")
	}
	return nil
}

// EffectiveBaseURL returns the configured base URL, or one derived from
// the listen address.
func (c *Config) EffectiveBaseURL() string {
	if c.Server.BaseURL != "" {
		return c.Server.BaseURL
	}
	host := c.Server.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d%s", host, c.Server.Port, c.Server.Path)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.Path != "" {
		c.Server.Path = other.Server.Path
	}
	if other.Server.BaseURL != "" {
		c.Server.BaseURL = other.Server.BaseURL
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Registry
	if other.Registry.Endpoint != "" {
		c.Registry.Endpoint = other.Registry.Endpoint
	}
	if other.Registry.StaticFile != "" {
		c.Registry.StaticFile = other.Registry.StaticFile
	}

	// Ecosystem
	if other.Ecosystem.Path != "" {
		c.Ecosystem.Path = other.Ecosystem.Path
	}
	if other.Ecosystem.Watch {
		c.Ecosystem.Watch = true
	}
	if other.Ecosystem.DebounceDelay != 0 {
		c.Ecosystem.DebounceDelay = other.Ecosystem.DebounceDelay
	}

	// Upstream
	if other.Upstream.Timeout != 0 {
		c.Upstream.Timeout = other.Upstream.Timeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Name != "" {
		c.NATS.Name = other.NATS.Name
	}

	// Cache
	if other.Cache.CollectorSize != 0 {
		c.Cache.CollectorSize = other.Cache.CollectorSize
	}
}
