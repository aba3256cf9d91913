package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Path != "/gw" {
		t.Errorf("expected default path /gw, got %s", cfg.Server.Path)
	}
	if cfg.Registry.Endpoint != "http://localhost:5010" {
		t.Errorf("expected default registry endpoint http://localhost:5010, got %s", cfg.Registry.Endpoint)
	}
	if cfg.Cache.CollectorSize != 128 {
		t.Errorf("expected default collector size 128, got %d", cfg.Cache.CollectorSize)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected NATS disabled by default, got %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "path without leading slash",
			modify:  func(c *Config) { c.Server.Path = "gw" },
			wantErr: true,
		},
		{
			name:    "bad base URL",
			modify:  func(c *Config) { c.Server.BaseURL = "not a url" },
			wantErr: true,
		},
		{
			name: "no registry source",
			modify: func(c *Config) {
				c.Registry.Endpoint = ""
				c.Registry.StaticFile = ""
			},
			wantErr: true,
		},
		{
			name:    "static registry alone is enough",
			modify:  func(c *Config) { c.Registry.Endpoint = ""; c.Registry.StaticFile = "reg.yaml" },
			wantErr: false,
		},
		{
			name:    "missing ecosystem path",
			modify:  func(c *Config) { c.Ecosystem.Path = "" },
			wantErr: true,
		},
		{
			name:    "non-positive collector size",
			modify:  func(c *Config) { c.Cache.CollectorSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  host: "gw.example.org"
  port: 8080
  path: "/things"
registry:
  endpoint: "http://registry:5010"
ecosystem:
  path: "/etc/semgate/ted.yaml"
  watch: true
upstream:
  timeout: 30s
nats:
  url: "nats://test:4222"
cache:
  collector_size: 16
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Host != "gw.example.org" {
		t.Errorf("expected host gw.example.org, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Path != "/things" {
		t.Errorf("expected path /things, got %s", cfg.Server.Path)
	}
	if cfg.Ecosystem.Path != "/etc/semgate/ted.yaml" {
		t.Errorf("expected ecosystem path /etc/semgate/ted.yaml, got %s", cfg.Ecosystem.Path)
	}
	if !cfg.Ecosystem.Watch {
		t.Error("expected ecosystem watch enabled")
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("expected upstream timeout 30s, got %v", cfg.Upstream.Timeout)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Cache.CollectorSize != 16 {
		t.Errorf("expected collector size 16, got %d", cfg.Cache.CollectorSize)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Server: ServerConfig{
			Port: 9000,
		},
		Ecosystem: EcosystemConfig{
			Path: "/override/ted.yaml",
		},
	}

	base.Merge(override)

	if base.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", base.Server.Port)
	}
	// Host should remain from base since override didn't set it
	if base.Server.Host != "0.0.0.0" {
		t.Errorf("expected host to remain default, got %s", base.Server.Host)
	}
	if base.Ecosystem.Path != "/override/ted.yaml" {
		t.Errorf("expected ecosystem path /override/ted.yaml, got %s", base.Ecosystem.Path)
	}
}

func TestEffectiveBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.EffectiveBaseURL(); got != "http://localhost:5000/gw" {
		t.Errorf("expected http://localhost:5000/gw, got %s", got)
	}

	cfg.Server.BaseURL = "https://gw.example.org/things"
	if got := cfg.EffectiveBaseURL(); got != "https://gw.example.org/things" {
		t.Errorf("expected configured base URL, got %s", got)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9999

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", loaded.Server.Port)
	}
}
