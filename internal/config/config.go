package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"API_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE" envDefault:"./logs/api.log"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`

	// Root directory holding the Caddyfile and the static frontend
	RootDir   string `env:"ROOT_DIR" envDefault:"."`
	Caddyfile string `env:"CADDYFILE"`
	StaticDir string `env:"STATIC_DIR"`

	// Caddy Configuration
	CaddyBinary        string        `env:"CADDY_BINARY" envDefault:"caddy"`
	CaddyReloadTimeout time.Duration `env:"CADDY_RELOAD_TIMEOUT" envDefault:"10s"`
	CaddyPIDFile       string        `env:"CADDY_PID_FILE" envDefault:"/tmp/caddy.pid"`
	CaddyLogFile       string        `env:"CADDY_LOG_FILE" envDefault:"/tmp/caddy.log"`

	// HTTP middleware
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	envLocations := []string{".env"}

	// If ENV is set, try to load that specific file first
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Caddyfile == "" {
		cfg.Caddyfile = filepath.Join(cfg.RootDir, "Caddyfile")
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = filepath.Join(cfg.RootDir, "static")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that env parsing alone cannot reject
func (c *Config) Validate() error {
	if c.Port == "" || c.Port == "0" {
		return fmt.Errorf("invalid config: API_PORT must be set")
	}
	if c.CaddyReloadTimeout <= 0 {
		return fmt.Errorf("invalid config: CADDY_RELOAD_TIMEOUT must be positive, got %s", c.CaddyReloadTimeout)
	}
	if c.CaddyBinary == "" {
		return fmt.Errorf("invalid config: CADDY_BINARY must be set")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("invalid config: rate limit values must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
