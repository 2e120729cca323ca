package config

import (
	"os"
	"strconv"
	"time"

	"hisoutlier/domain/outlier"
	"hisoutlier/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Outlier  OutlierConfig
	Server   ServerConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL              string
	Dialect          string
	StatementTimeout time.Duration
	MaxOpenConns     int
}

// OutlierConfig holds request defaults and algorithm options
type OutlierConfig struct {
	DefaultThreshold  float64
	DefaultMaxResults int
	MaxResultsLimit   int
	ModifiedZScoreMAD bool
}

// Limits converts the configured defaults into request limits.
func (c OutlierConfig) Limits() outlier.Limits {
	return outlier.Limits{
		DefaultThreshold:  c.DefaultThreshold,
		DefaultMaxResults: c.DefaultMaxResults,
		MaxResultsLimit:   c.MaxResultsLimit,
	}
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	File  string
}

// Load reads .env if present, then configuration from environment variables,
// and validates it. requireDatabase is false for offline commands.
func Load(requireDatabase bool) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Database: loadDatabaseConfig(),
		Outlier:  loadOutlierConfig(),
		Server:   loadServerConfig(),
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
			File:  getEnvOrDefault("LOG_FILE", ""),
		},
	}

	if err := validateConfig(config, requireDatabase); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:              os.Getenv("DATABASE_URL"),
		Dialect:          getEnvOrDefault("SQL_DIALECT", "postgres"),
		StatementTimeout: getEnvDurationOrDefault("OUTLIER_STATEMENT_TIMEOUT", 0),
		MaxOpenConns:     getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
	}
}

func loadOutlierConfig() OutlierConfig {
	return OutlierConfig{
		DefaultThreshold:  getEnvFloatOrDefault("OUTLIER_DEFAULT_THRESHOLD", outlier.DefaultThreshold),
		DefaultMaxResults: getEnvIntOrDefault("OUTLIER_DEFAULT_MAX_RESULTS", outlier.DefaultMaxResults),
		MaxResultsLimit:   getEnvIntOrDefault("OUTLIER_MAX_RESULTS_LIMIT", outlier.DefaultMaxResultsLimit),
		ModifiedZScoreMAD: getEnvBoolOrDefault("OUTLIER_MODIFIED_Z_MAD", false),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(config *Config, requireDatabase bool) error {
	if requireDatabase && config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if !(config.Outlier.DefaultThreshold > 0) {
		return errors.ConfigInvalid("OUTLIER_DEFAULT_THRESHOLD must be positive")
	}
	if config.Outlier.DefaultMaxResults <= 0 {
		return errors.ConfigInvalid("OUTLIER_DEFAULT_MAX_RESULTS must be positive")
	}
	if config.Outlier.MaxResultsLimit > 0 && config.Outlier.DefaultMaxResults > config.Outlier.MaxResultsLimit {
		return errors.ConfigInvalid("OUTLIER_DEFAULT_MAX_RESULTS exceeds OUTLIER_MAX_RESULTS_LIMIT")
	}
	if config.Database.StatementTimeout < 0 {
		return errors.ConfigInvalid("OUTLIER_STATEMENT_TIMEOUT must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
