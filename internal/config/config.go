// Package config loads HyStore settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSQLiteDSN is used when DB_DRIVER is sqlite and DATABASE_DSN is unset.
const DefaultSQLiteDSN = "hystore.db"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the runtime configuration of the server.
type Config struct {
	AppPort string
	AppEnv  string

	DBDriver    string
	DatabaseDSN string

	JWTSecret string
	JWTTTL    time.Duration

	// Empty RabbitMQURL disables order events; empty RedisAddr disables the
	// cart cache and the shared checkout lock.
	RabbitMQURL string
	RedisAddr   string

	AdminUsername      string
	AdminPassword      string
	AdvertiserUsername string
	AdvertiserPassword string

	CheckoutLockTTL  time.Duration
	SeedDemoProducts bool
}

// Development reports whether APP_ENV asks for development behavior.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADVERTISER_USERNAME", "advertiser")
	v.SetDefault("ADVERTISER_PASSWORD", "")
	v.SetDefault("CHECKOUT_LOCK_TTL", "10s")
	v.SetDefault("SEED_DEMO_PRODUCTS", true)
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:            v.GetString("APP_PORT"),
		AppEnv:             v.GetString("APP_ENV"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		AdminUsername:      v.GetString("ADMIN_USERNAME"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		AdvertiserUsername: v.GetString("ADVERTISER_USERNAME"),
		AdvertiserPassword: v.GetString("ADVERTISER_PASSWORD"),
		CheckoutLockTTL:    v.GetDuration("CHECKOUT_LOCK_TTL"),
		SeedDemoProducts:   v.GetBool("SEED_DEMO_PRODUCTS"),
	}
	// only sqlite has a usable default location
	if cfg.DBDriver == DriverSQLite && cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = DefaultSQLiteDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be a positive duration")
	}
	if c.CheckoutLockTTL <= 0 {
		return fmt.Errorf("CHECKOUT_LOCK_TTL must be a positive duration")
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN must be set for driver %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite, postgres or memory)", c.DBDriver)
	}
	return nil
}
