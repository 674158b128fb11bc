package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const envPrefix = "EBUSPAY"

type Config struct {
	ServerPort string `envconfig:"EBUSPAY_PORT" default:"8080"`

	DB       DBConfig
	Paystack PaystackConfig
	Payments PaymentsConfig
}

type DBConfig struct {
	Host     string `envconfig:"EBUSPAY_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"EBUSPAY_DB_PORT" default:"5432"`
	User     string `envconfig:"EBUSPAY_DB_USER" default:"postgres"`
	Password string `envconfig:"EBUSPAY_DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"EBUSPAY_DB_NAME" default:"ebuspay"`
	SSLMode  string `envconfig:"EBUSPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EBUSPAY_DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"EBUSPAY_DB_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"EBUSPAY_DB_CONN_MAX_LIFETIME" default:"5m"`
}

type PaystackConfig struct {
	SecretKey string        `envconfig:"EBUSPAY_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"EBUSPAY_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"EBUSPAY_PAYSTACK_TIMEOUT" default:"15s"`
}

type PaymentsConfig struct {
	// MinimumCharge is the smallest amount the gateway accepts for an
	// initialized payment, in major currency units.
	MinimumCharge string `envconfig:"EBUSPAY_MIN_CHARGE" default:"100"`
	// AmountTolerance is the absolute difference allowed between the
	// gateway-reported amount and the recorded intent amount before a
	// verification is rejected. The legacy backends compared with a 0.01
	// tolerance; the default here is exact match. Kept configurable so
	// operators can restore the old behavior deliberately.
	AmountTolerance string `envconfig:"EBUSPAY_AMOUNT_TOLERANCE" default:"0"`
}

// Load reads a .env file if one is present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Payments.MinimumChargeAmount(); err != nil {
		return nil, fmt.Errorf("parsing EBUSPAY_MIN_CHARGE: %w", err)
	}
	if _, err := cfg.Payments.Tolerance(); err != nil {
		return nil, fmt.Errorf("parsing EBUSPAY_AMOUNT_TOLERANCE: %w", err)
	}
	return &cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (p PaymentsConfig) MinimumChargeAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(p.MinimumCharge)
}

func (p PaymentsConfig) Tolerance() (decimal.Decimal, error) {
	return decimal.NewFromString(p.AmountTolerance)
}
