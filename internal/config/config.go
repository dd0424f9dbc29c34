// Package config provides configuration management for the debugpy-mcp server.
//
// Configuration controls:
//   - Capability mode (readonly vs full): determines which tools are available
//   - Connection defaults: host, port, and protocol timeouts
//   - Safety limits: maximum sessions and session timeout
//
// Configuration can be loaded from a JSON file or use sensible defaults.
// The readonly mode exposes only inspection tools, while full mode enables
// all debugging capabilities including execution control.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// CapabilityMode defines the level of debugging capabilities exposed
type CapabilityMode string

const (
	ModeReadOnly CapabilityMode = "readonly" // Only inspection tools
	ModeFull     CapabilityMode = "full"     // All tools enabled
)

// Config holds the server configuration
type Config struct {
	// Capability level
	Mode CapabilityMode `json:"mode"`

	// Connection defaults for start_debug_session
	DefaultHost string `json:"defaultHost"`
	DefaultPort int    `json:"defaultPort"`

	// Protocol timeouts
	ConnectTimeout time.Duration `json:"connectTimeout"`
	RequestTimeout time.Duration `json:"requestTimeout"`

	// Limits for safety
	MaxSessions    int           `json:"maxSessions"`
	SessionTimeout time.Duration `json:"sessionTimeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
// The default port is debugpy's conventional listen port.
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeFull,
		DefaultHost:    "127.0.0.1",
		DefaultPort:    5678,
		ConnectTimeout: 30 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxSessions:    10,
		SessionTimeout: 30 * time.Minute,
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CanUseControlTools returns true if control tools are enabled
func (c *Config) CanUseControlTools() bool {
	return c.Mode == ModeFull
}
