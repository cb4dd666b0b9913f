package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the ucan service configuration
type Config struct {
	// Issuer is this service's own did:key identity, used when it
	// issues tokens on a caller's behalf.
	Issuer string `yaml:"issuer"`

	// Default lifetime, in seconds, applied to Issue when the caller
	// doesn't supply an explicit expiration.
	DefaultLifetimeSeconds int64 `yaml:"default_lifetime_seconds"`

	// Database configuration (token cache)
	Database DatabaseConfig `yaml:"database"`

	// Storage configuration (content-addressed block store)
	Storage StorageConfig `yaml:"storage"`

	// Service keys
	Keys KeysConfig `yaml:"keys"`

	// HTTP server configuration
	Server ServerConfig `yaml:"server"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path      string `yaml:"path"`
	EnableWAL bool   `yaml:"enable_wal"`
}

// StorageConfig represents block-store configuration
type StorageConfig struct {
	Type string `yaml:"type"` // "local" or "memory"
	Path string `yaml:"path"` // For local storage
}

// KeysConfig represents service key configuration
type KeysConfig struct {
	Private string `yaml:"private"` // Path to the signing private key (raw bytes)
	Public  string `yaml:"public"`  // Path to the did:key public identity
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host   string     `yaml:"host"`
	Port   int        `yaml:"port"`
	APIKey string     `yaml:"api_key"`
	CORS   CORSConfig `yaml:"cors"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}

	if c.DefaultLifetimeSeconds <= 0 {
		return fmt.Errorf("default_lifetime_seconds must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "memory" {
		return fmt.Errorf("storage type must be \"local\" or \"memory\", got %q", c.Storage.Type)
	}

	if c.Storage.Type == "local" && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for local storage")
	}

	if c.Keys.Private == "" {
		return fmt.Errorf("private key path is required")
	}

	if c.Keys.Public == "" {
		return fmt.Errorf("public key path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLifetimeSeconds: 30,
		Database: DatabaseConfig{
			Path:      "./demo/ucan.db",
			EnableWAL: true,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "./demo/blocks",
		},
		Keys: KeysConfig{
			Private: "./demo/priv.key",
			Public:  "./demo/did.txt",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 56178,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
			},
		},
	}
}

// GenerateAPIKey generates a cryptographically secure random API key
// Returns a 64-character hexadecimal string (32 bytes of randomness)
func GenerateAPIKey() (string, error) {
	// Generate 32 bytes of cryptographically secure random data
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// Encode as 64-character hexadecimal string
	return hex.EncodeToString(randomBytes), nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
