package config

import (
	"fmt"
	"os"
	"strconv"

	"itledger/internal/logger"
)

// Extractor backends.
const (
	ExtractorPDF    = "pdf"
	ExtractorVision = "vision"
)

type Config struct {
	// Storage
	DatabasePath string
	ExportDir    string

	// Access
	DefaultPassword string

	// Receipt scanning
	Extractor string

	// Google Cloud credentials, used only by the vision extractor
	GoogleCredentials     string
	GoogleCredentialsFile string

	// Documents
	BusinessName           string
	DeleteCountdownSeconds int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	countdown, err := strconv.Atoi(getEnv("ITLEDGER_DELETE_COUNTDOWN", "10"))
	if err != nil {
		return nil, fmt.Errorf("ITLEDGER_DELETE_COUNTDOWN must be a number of seconds: %w", err)
	}

	config := &Config{
		DatabasePath:           getEnv("ITLEDGER_DB", "itledger.db"),
		ExportDir:              getEnv("ITLEDGER_EXPORT_DIR", "."),
		DefaultPassword:        getEnv("ITLEDGER_DEFAULT_PASSWORD", "1234"),
		Extractor:              getEnv("ITLEDGER_EXTRACTOR", ExtractorPDF),
		GoogleCredentials:      getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		BusinessName:           getEnv("ITLEDGER_BUSINESS_NAME", "CIBER CENTRO IT MANAGER"),
		DeleteCountdownSeconds: countdown,
		LogLevel:               getEnv("LOG_LEVEL", "warn"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:              getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("ITLEDGER_DB is required")
	}
	if c.Extractor != ExtractorPDF && c.Extractor != ExtractorVision {
		return fmt.Errorf("ITLEDGER_EXTRACTOR must be %q or %q, got %q", ExtractorPDF, ExtractorVision, c.Extractor)
	}
	if c.DeleteCountdownSeconds < 1 {
		return fmt.Errorf("ITLEDGER_DELETE_COUNTDOWN must be at least 1 second")
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
