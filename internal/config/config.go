package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Server
	Port            int           `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// Admin auth
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Orders
	DeliveryCharge         float64       `env:"DELIVERY_CHARGE" envDefault:"40"`
	StrictOrderTransitions bool          `env:"ORDER_STRICT_TRANSITIONS" envDefault:"false"`
	SettingsCacheTTL       time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"30s"`

	// Coupons
	EnforceMinPurchase bool `env:"COUPON_ENFORCE_MIN_PURCHASE" envDefault:"false"`
	SweepHour          int  `env:"COUPON_SWEEP_HOUR" envDefault:"0"`
	SweepMinute        int  `env:"COUPON_SWEEP_MINUTE" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.SweepHour < 0 || c.SweepHour > 23 {
		return fmt.Errorf("COUPON_SWEEP_HOUR out of range: %d", c.SweepHour)
	}
	if c.SweepMinute < 0 || c.SweepMinute > 59 {
		return fmt.Errorf("COUPON_SWEEP_MINUTE out of range: %d", c.SweepMinute)
	}
	if c.DeliveryCharge < 0 {
		return fmt.Errorf("DELIVERY_CHARGE cannot be negative")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) DefaultDeliveryCharge() decimal.Decimal {
	return decimal.NewFromFloat(c.DeliveryCharge)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
