package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
)

// VenueConfig holds the per-venue endpoint and credential settings.
// Secrets belong in environment variables; values present in the file
// are accepted but warned about.
type VenueConfig struct {
	RestURL    string  `yaml:"rest_url"`
	WSURL      string  `yaml:"ws_url"`
	APIKey     string  `yaml:"api_key"`
	SecretKey  string  `yaml:"secret_key"`
	Passphrase string  `yaml:"passphrase"`
	RateLimit  float64 `yaml:"rate_limit"` // requests per second, 0 = default
}

// Config holds the full application configuration.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Venues struct {
		Binance  VenueConfig `yaml:"binance"`
		Coinbase VenueConfig `yaml:"coinbase"`
	} `yaml:"venues"`

	Gateway struct {
		RecvWindowMS      int     `yaml:"recv_window_ms"`
		MaxRetries        int     `yaml:"max_retries"`
		IdempotencyTTLSec int     `yaml:"idempotency_ttl_sec"`
		BreakerFailures   int     `yaml:"breaker_failures"`
		BreakerCooldownMS int     `yaml:"breaker_cooldown_ms"`
		RequestTimeoutMS  int     `yaml:"request_timeout_ms"`
		DefaultRateLimit  float64 `yaml:"default_rate_limit"`
	} `yaml:"gateway"`

	Journal struct {
		Path string `yaml:"path"` // empty disables the order journal
	} `yaml:"journal"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	g := &c.Gateway
	if g.RecvWindowMS <= 0 {
		g.RecvWindowMS = 5000
	}
	if g.MaxRetries <= 0 {
		g.MaxRetries = 3
	}
	if g.IdempotencyTTLSec <= 0 {
		g.IdempotencyTTLSec = 300
	}
	if g.BreakerFailures <= 0 {
		g.BreakerFailures = 5
	}
	if g.BreakerCooldownMS <= 0 {
		g.BreakerCooldownMS = 30000
	}
	if g.RequestTimeoutMS <= 0 {
		g.RequestTimeoutMS = 15000
	}
	if g.DefaultRateLimit <= 0 {
		g.DefaultRateLimit = 10
	}
}

// IdempotencyTTL returns the configured client-order-id replay window.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Gateway.IdempotencyTTLSec) * time.Second
}

// BreakerCooldown returns the open-state cooldown for venue breakers.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Gateway.BreakerCooldownMS) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeoutMS) * time.Millisecond
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	for name, v := range map[string]VenueConfig{
		"binance":  c.Venues.Binance,
		"coinbase": c.Venues.Coinbase,
	} {
		if v.RestURL != "" && !strings.HasPrefix(v.RestURL, "http://") && !strings.HasPrefix(v.RestURL, "https://") {
			return fmt.Errorf("invalid %s REST URL: %s", name, v.RestURL)
		}
		if v.WSURL != "" && !strings.HasPrefix(v.WSURL, "ws://") && !strings.HasPrefix(v.WSURL, "wss://") {
			return fmt.Errorf("invalid %s WS URL: %s", name, v.WSURL)
		}
		if v.RateLimit < 0 {
			return fmt.Errorf("%s rate_limit must not be negative", name)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	return nil
}

// Credentials returns the configured credentials for a venue. The
// returned struct is a value copy for the caller's single use; nothing
// here is ever logged.
func (c *Config) Credentials(v enums.Venue) (domain.Credentials, error) {
	var vc VenueConfig
	switch v {
	case enums.VenueBinance:
		vc = c.Venues.Binance
	case enums.VenueCoinbase:
		vc = c.Venues.Coinbase
	default:
		return domain.Credentials{}, fmt.Errorf("no credentials configured for venue %s", v)
	}
	return domain.Credentials{
		APIKey:     vc.APIKey,
		SecretKey:  vc.SecretKey,
		Passphrase: vc.Passphrase,
	}, nil
}

// overrideWithEnv applies environment variables over file values.
// Environment always wins so secrets can stay out of the file.
func overrideWithEnv(cfg *Config) {
	if cfg.Venues.Binance.SecretKey != "" || cfg.Venues.Coinbase.SecretKey != "" {
		fmt.Println("WARNING: API secrets found in config file.")
		fmt.Println("  Recommendation: use environment variables instead:")
		fmt.Println("  - VENUE_BINANCE_KEY, VENUE_BINANCE_SECRET")
		fmt.Println("  - VENUE_COINBASE_KEY, VENUE_COINBASE_SECRET")
	}

	if key := os.Getenv("VENUE_BINANCE_KEY"); key != "" {
		cfg.Venues.Binance.APIKey = key
	}
	if secret := os.Getenv("VENUE_BINANCE_SECRET"); secret != "" {
		cfg.Venues.Binance.SecretKey = secret
	}
	if key := os.Getenv("VENUE_COINBASE_KEY"); key != "" {
		cfg.Venues.Coinbase.APIKey = key
	}
	if secret := os.Getenv("VENUE_COINBASE_SECRET"); secret != "" {
		cfg.Venues.Coinbase.SecretKey = secret
	}
}
