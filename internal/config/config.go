package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Empty DATABASE_URL runs the server on in-memory stores (dev mode).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	// Empty EMR_BASE_URL uses the built-in static patient profiles.
	EMRBaseURL string        `mapstructure:"EMR_BASE_URL"`
	EMRTimeout time.Duration `mapstructure:"EMR_TIMEOUT"`

	// Empty KAFKA_BROKERS logs events instead of publishing.
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	ExpiryHorizonDays      int `mapstructure:"EXPIRY_HORIZON_DAYS"`
	ExpiryHighPriorityDays int `mapstructure:"EXPIRY_HIGH_PRIORITY_DAYS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("EMR_TIMEOUT", "5s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("EXPIRY_HORIZON_DAYS", 7)
	v.SetDefault("EXPIRY_HIGH_PRIORITY_DAYS", 2)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("EMR_BASE_URL")
	v.BindEnv("EMR_TIMEOUT")
	v.BindEnv("KAFKA_BROKERS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("EXPIRY_HORIZON_DAYS")
	v.BindEnv("EXPIRY_HIGH_PRIORITY_DAYS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.KafkaBrokers == nil {
		if brokers := v.GetString("KAFKA_BROKERS"); brokers != "" {
			cfg.KafkaBrokers = strings.Split(brokers, ",")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production requires
// a real database; the in-memory stores lose all orders on restart.
func (c *Config) Validate() error {
	if c.IsProduction() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENV=production")
	}
	if c.ExpiryHighPriorityDays > c.ExpiryHorizonDays {
		return fmt.Errorf("EXPIRY_HIGH_PRIORITY_DAYS (%d) must not exceed EXPIRY_HORIZON_DAYS (%d)",
			c.ExpiryHighPriorityDays, c.ExpiryHorizonDays)
	}
	if c.EMRTimeout <= 0 {
		return fmt.Errorf("EMR_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
