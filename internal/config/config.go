package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console

	// Upstream legal search API
	SearchAPIURL    string        `env:"SEARCH_API_URL" envDefault:"https://api.indiankanoon.org/search/"`
	DocAPIURL       string        `env:"DOC_API_URL" envDefault:"https://api.indiankanoon.org/doc/"`
	APIToken        string        `env:"API_TOKEN"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"0s"`

	SanitizeUpstreamHTML bool     `env:"SANITIZE_UPSTREAM_HTML" envDefault:"false"`
	AllowedOrigins       []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	// Only these peers may set X-Forwarded-For / X-Real-IP. CIDRs or addresses.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Optional audit sinks and rate limiting; empty disables.
	PostgresDSN        string `env:"POSTGRES_DSN"`
	MongoURI           string `env:"MONGO_URI"`
	MongoDB            string `env:"MONGO_DB" envDefault:"legal_search"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// bcrypt hash of the operator token for /api/history. Empty leaves the
	// history routes unmounted.
	HistoryTokenHash string `env:"HISTORY_TOKEN_HASH"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	if strings.TrimSpace(c.SearchAPIURL) == "" || strings.TrimSpace(c.DocAPIURL) == "" {
		return fmt.Errorf("SEARCH_API_URL and DOC_API_URL must not be empty")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0, got %d", c.RateLimitPerMinute)
	}
	if c.HistoryTokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.HistoryTokenHash)); err != nil {
			return fmt.Errorf("HISTORY_TOKEN_HASH is not a bcrypt hash: %w", err)
		}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
