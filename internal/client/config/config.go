package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
)

// Config holds runtime settings for the storefront CLI.
type Config struct {
	APIBaseURL      string        `env:"STOREFRONT_API_URL"`
	RequestTimeout  time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT"`
	NotificationTTL time.Duration `env:"STOREFRONT_NOTIFICATION_TTL"`
	DatabasePath    string        `env:"STOREFRONT_DB"`
	LogLevel        string        `env:"STOREFRONT_LOG_LEVEL"`
	LogBackend      string        `env:"STOREFRONT_LOG_BACKEND"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080"
	c.RequestTimeout = 10 * time.Second
	c.NotificationTTL = 4000 * time.Millisecond
	c.DatabasePath = "storefront.db"
	c.LogLevel = "warn"
	c.LogBackend = "slog"
}

func (c *Config) validate() error {
	if common.IsBlank(c.APIBaseURL) {
		return fmt.Errorf("api base url is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification ttl must be positive, got %s", c.NotificationTTL)
	}
	if common.IsBlank(c.DatabasePath) {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

// LoadConfig applies defaults, then overlays the JSON file, the environment
// and finally args (usually os.Args[1:]). Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
