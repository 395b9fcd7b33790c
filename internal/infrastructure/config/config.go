package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	Maxxit    MaxxitConfig
	Generator GeneratorConfig
	Registry  RegistryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	// SecureCookies marks cookies Secure; enable behind HTTPS.
	SecureCookies bool `envconfig:"SECURE_COOKIES" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SessionConfig bounds the editing sessions kept in memory.
type SessionConfig struct {
	MaxSessions   int           `envconfig:"SESSION_MAX" default:"1000"`
	IdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

// DatabaseConfig holds the user store connection. An empty URL disables it.
type DatabaseConfig struct {
	URL          string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
}

// RedisConfig holds the recent list store. An empty URL keeps lists in memory.
type RedisConfig struct {
	URL string        `envconfig:"REDIS_URL"`
	TTL time.Duration `envconfig:"RECENT_TTL" default:"0"`
}

// OAuthConfig holds the GitHub OAuth app.
type OAuthConfig struct {
	ClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	ClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"OAUTH_REDIRECT_URL"`
	AppURL       string `envconfig:"APP_URL" default:"/app"`
}

// MaxxitConfig holds the trading API proxy target.
type MaxxitConfig struct {
	URL       string        `envconfig:"MAXXIT_API_URL"`
	APIKey    string        `envconfig:"MAXXIT_API_KEY"`
	Timeout   time.Duration `envconfig:"MAXXIT_TIMEOUT" default:"30s"`
	RateLimit float64       `envconfig:"MAXXIT_RATE_LIMIT" default:"0"`
}

// GeneratorConfig holds the code generation service.
type GeneratorConfig struct {
	URL     string        `envconfig:"GENERATOR_URL"`
	Timeout time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"120s"`
}

// RegistryConfig holds the plugin catalog directory.
type RegistryConfig struct {
	CatalogDir string `envconfig:"REGISTRY_CATALOG_DIR"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Session: SessionConfig{
			MaxSessions:   1000,
			IdleTTL:       24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		OAuth: OAuthConfig{
			AppURL: "/app",
		},
		Maxxit: MaxxitConfig{
			Timeout: 30 * time.Second,
		},
		Generator: GeneratorConfig{
			Timeout: 120 * time.Second,
		},
	}
}
