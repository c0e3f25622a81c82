package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Pricing  PricingConfig
	Order    OrderConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// PricingConfig holds the tax and shipping parameters applied at checkout.
type PricingConfig struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
	Currency    string
}

// OrderConfig bounds order creation.
type OrderConfig struct {
	NumberLength      int
	MaxNumberAttempts int
	StoreTimeoutSecs  int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	taxRate, err := getEnvAsDecimal("TAX_RATE", "0.08")
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}

	shippingFee, err := getEnvAsDecimal("SHIPPING_FEE", "10.00")
	if err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_FEE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Pricing: PricingConfig{
			TaxRate:     taxRate,
			ShippingFee: shippingFee,
			Currency:    getEnv("PAYMENT_CURRENCY", "USD"),
		},
		Order: OrderConfig{
			NumberLength:      getEnvAsInt("ORDER_NUMBER_LENGTH", 10),
			MaxNumberAttempts: getEnvAsInt("ORDER_NUMBER_MAX_ATTEMPTS", 5),
			StoreTimeoutSecs:  getEnvAsInt("STORE_TIMEOUT", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Pricing.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative: %s", c.Pricing.TaxRate)
	}

	if c.Pricing.ShippingFee.IsNegative() {
		return fmt.Errorf("shipping fee must not be negative: %s", c.Pricing.ShippingFee)
	}

	if len(c.Pricing.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code: %s", c.Pricing.Currency)
	}

	if c.Order.NumberLength < 6 {
		return fmt.Errorf("order number length must be at least 6: %d", c.Order.NumberLength)
	}

	if c.Order.MaxNumberAttempts < 1 {
		return fmt.Errorf("order number attempts must be at least 1: %d", c.Order.MaxNumberAttempts)
	}

	if c.Order.StoreTimeoutSecs < 1 {
		return fmt.Errorf("store timeout must be at least 1 second: %d", c.Order.StoreTimeoutSecs)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a fixed-point
// decimal, falling back to the given default.
func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return decimal.NewFromString(value)
}
