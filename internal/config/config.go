package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
	Routing   RoutingConfig
	Bootstrap BootstrapConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":8080")
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret  string        // JWT signing secret
	AccessTTL  time.Duration // access token lifetime
	RefreshTTL time.Duration // refresh token lifetime
}

// RoutingConfig contains settings for the external routing service.
// The client is constructed once at process start with these values;
// there is no global mutable API-key state.
type RoutingConfig struct {
	BaseURL string        // routing API base URL
	APIKey  string        // routing API key (empty key makes requests fail gracefully)
	Timeout time.Duration // per-request timeout
}

// BootstrapConfig seeds the first superuser when the users table is empty.
type BootstrapConfig struct {
	SuperuserUsername string
	SuperuserPassword string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := defaults()
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg := defaults()
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "fleet.db"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			AccessTTL:  getEnvSeconds("JWT_ACCESS_TTL_SECONDS", 15*time.Minute),
			RefreshTTL: getEnvSeconds("JWT_REFRESH_TTL_SECONDS", 24*time.Hour),
		},
		Routing: RoutingConfig{
			BaseURL: getEnv("ROUTING_BASE_URL", "https://api.openrouteservice.org"),
			APIKey:  getEnv("ROUTING_API_KEY", ""),
			Timeout: getEnvSeconds("ROUTING_TIMEOUT_SECONDS", 30*time.Second),
		},
		Bootstrap: BootstrapConfig{
			SuperuserUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
			SuperuserPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvSeconds retrieves an environment variable holding whole seconds
// with a default fallback.
func getEnvSeconds(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		secs, err := strconv.Atoi(value)
		if err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, Auth: *** (masked) ***, Routing: %s}",
		c.Database.Path, c.HTTP.Address, c.Routing.BaseURL)
}
