// Package config provides 12-factor configuration management for the Cradle backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Session: Editing session cap and idle expiry
//   - Database: User store (Postgres or SQLite)
//   - Redis: Recent blueprint list store
//   - OAuth: GitHub OAuth app
//   - Maxxit, Generator: Upstream services
//   - Registry: Extra plugin catalog directory
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS, SECURE_COOKIES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DATABASE_URL, REDIS_URL
//   - GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET, OAUTH_REDIRECT_URL, APP_URL
//   - MAXXIT_API_URL, MAXXIT_API_KEY, GENERATOR_URL
//   - REGISTRY_CATALOG_DIR
package config
