package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"invoicing/internal/logger"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	// HTTP Server Configuration
	HTTPAddr        string
	DefaultPageSize int

	// Persistence Configuration
	StoreDriver    string
	DatabaseURL    string
	DBMaxOpenConns int
	DBAutoMigrate  bool

	// Invoice numbering: optional Redis for a shared sequence
	RedisURL string

	// Google Sheets Configuration
	GoogleSheetURL          string
	GoogleServiceAccountKey string

	// Google Cloud Storage archive for exported files
	GCSOutputBucket string
	GCSOutputFolder string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DefaultPageSize:         getEnvInt("DEFAULT_PAGE_SIZE", 20),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:          getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBAutoMigrate:           getEnvBool("DB_AUTO_MIGRATE", true),
		RedisURL:                getEnv("REDIS_URL", ""),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GCSOutputBucket:         getEnv("GCS_OUTPUT_BUCKET", ""),
		GCSOutputFolder:         getEnv("GCS_OUTPUT_FOLDER", "reports"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive")
	}
	if c.DBMaxOpenConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS cannot be negative")
	}
	return nil
}

// RequireSheets reports a configuration error when Google Sheets publishing is used
// without a target sheet.
func (c *Config) RequireSheets() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	return nil
}

// RequireArchive reports a configuration error when archiving is used without a bucket.
func (c *Config) RequireArchive() error {
	if c.GCSOutputBucket == "" {
		return fmt.Errorf("GCS_OUTPUT_BUCKET is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
