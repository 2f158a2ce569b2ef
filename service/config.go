package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderShipStation = "shipstation"
	ProviderEasyPost    = "easypost"
	ProviderMock        = "mock"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        string `envconfig:"PORT" default:"8000"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8000"`
	DBPath      string `envconfig:"DB_PATH" default:"./data/database.db"`

	// LogLevel accepts slog level names (debug, info, warn, error) with an
	// optional offset such as "info+2".
	LogLevel  slog.Level `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string     `envconfig:"LOG_FORMAT" default:"json"`

	Shipping ShippingConfig
}

type ShippingConfig struct {
	// Provider selects the RateProvider: shipstation, easypost or mock.
	Provider           string        `envconfig:"RATE_PROVIDER" default:"mock"`
	ShipStationAPIKey  string        `envconfig:"SHIPSTATION_API_KEY"`
	ShipStationBaseURL string        `envconfig:"SHIPSTATION_BASE_URL"`
	EasyPostAPIKey     string        `envconfig:"EASYPOST_API_KEY"`
	RequestTimeout     time.Duration `envconfig:"SHIPPING_REQUEST_TIMEOUT" default:"15s"`

	// RedisURL enables the shared catalog cache; an in-process cache is used
	// when empty.
	RedisURL string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.Shipping.Provider = strings.ToLower(strings.TrimSpace(config.Shipping.Provider))
	if err := config.Shipping.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c ShippingConfig) validate() error {
	switch c.Provider {
	case ProviderShipStation:
		if c.ShipStationAPIKey == "" {
			return fmt.Errorf("SHIPSTATION_API_KEY is required for the %s provider", c.Provider)
		}
	case ProviderEasyPost:
		if c.EasyPostAPIKey == "" {
			return fmt.Errorf("EASYPOST_API_KEY is required for the %s provider", c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown rate provider %q", c.Provider)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
