package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// HTTP server
	HTTPPort       int           `env:"HTTP_PORT" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" default:"5s"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Authentication
	JWTSecret       string        `env:"JWT_SECRET" required:"true"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" default:"720h"`
	BcryptCost      int           `env:"BCRYPT_COST" default:"12"`

	// Login throttling (Redis is optional; empty URL falls back to an
	// in-process limiter)
	RedisURL        string `env:"REDIS_URL"`
	LoginRatePerMin int    `env:"LOGIN_RATE_PER_MIN" default:"10"`
	LoginRateBurst  int    `env:"LOGIN_RATE_BURST" default:"5"`

	// External catalog
	GoogleBooksAPIURL string        `env:"GOOGLE_BOOKS_API_URL" default:"https://www.googleapis.com/books/v1"`
	GoogleBooksAPIKey string        `env:"GOOGLE_BOOKS_API_KEY"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" default:"6s"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"info"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// No .env file is fine; system env vars still apply.
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// HTTP server
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RequestTimeout, "REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.SessionTokenTTL, "SESSION_TOKEN_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.BcryptCost, "BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	// Throttling
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.LoginRatePerMin, "LOGIN_RATE_PER_MIN", 10); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.LoginRateBurst, "LOGIN_RATE_BURST", 5); err != nil {
		return nil, err
	}

	// External catalog
	if err := loadEnvString(&config.GoogleBooksAPIURL, "GOOGLE_BOOKS_API_URL", "https://www.googleapis.com/books/v1"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.GoogleBooksAPIKey, "GOOGLE_BOOKS_API_KEY", ""); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.CatalogTimeout, "CATALOG_TIMEOUT", 6*time.Second); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"}); err != nil {
		return nil, err
	}

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) error {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// JWT secret length (should be at least 32 characters for security)
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	// bcrypt itself caps cost at 31; below 10 is too cheap for stored credentials
	if c.BcryptCost < 10 || c.BcryptCost > 31 {
		errors = append(errors, "BCRYPT_COST must be between 10 and 31")
	}

	if c.SessionTokenTTL <= 0 {
		errors = append(errors, "SESSION_TOKEN_TTL must be positive")
	}

	if c.LoginRatePerMin < 1 {
		errors = append(errors, "LOGIN_RATE_PER_MIN must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
