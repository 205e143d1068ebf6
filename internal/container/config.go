// Package container provides dependency injection and lifecycle management
// for the DMM case workflow service.
package container

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Auth configuration for bearer tokens
	Auth AuthConfig

	// Lark API configuration
	Lark LarkConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Server configuration
	Server ServerConfig

	// Institutions seeded into the directory on start
	Institutions []InstitutionSeed
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "memory"
	Driver string

	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 tokens
	JWTSecret string

	// Issuer is checked against the iss claim when set
	Issuer string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// Enabled switches institution notifications on
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// BaseURL overrides the open platform domain
	BaseURL string
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	// Enabled switches report drafting on
	Enabled bool

	// APIKey is the OpenAI API key
	APIKey string

	// BaseURL points at a compatible endpoint
	BaseURL string

	// Model is the model to use (e.g., "gpt-4o-mini")
	Model string

	// Timeout bounds a single drafting call
	Timeout time.Duration

	// PromptsPath is an optional YAML prompt override
	PromptsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// InstitutionSeed is one institution created on start when missing.
type InstitutionSeed struct {
	Code       string
	Name       string
	Type       string
	LarkOpenID string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Path:            "data/dmm.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			Issuer: "dmm-case-workflow",
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 20 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Mode:            "release",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	// Validate Lark configuration
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}

	// Validate OpenAI configuration
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai is enabled")
	}

	return nil
}
