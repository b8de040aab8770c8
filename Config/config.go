package Config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"Invoicing/logger"
)

// Config is the process-wide configuration read from the environment.
type Config struct {
	Port         string
	TemplatesDir string

	// Database
	DBDriver   string
	DBPath     string
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Billing
	TaxRate     decimal.Decimal
	Currency    string
	CompanyName string
	LogoPath    string

	// Email
	SMTPServer     string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFromEmail  string
	SMTPFromName   string
	SMTPTLS        bool
	SMTPArchiveBCC string

	// Slack
	SlackBotToken string
	SlackChannel  string

	// Cron
	ReminderSchedule string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the environment. Call godotenv.Load before it to pick up a .env file.
func Load() (*Config, error) {
	config := &Config{
		Port:             getEnv("PORT", "3001"),
		TemplatesDir:     getEnv("TEMPLATES_DIR", "./Templates"),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:           getEnv("DB_PATH", "invoicing.db"),
		DBDSN:            getEnv("DB_DSN", ""),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", ""),
		DBUser:           getEnv("DB_USER", ""),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "invoicing"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		Currency:         getEnv("CURRENCY", "USD"),
		CompanyName:      getEnv("COMPANY_NAME", "Invoicing"),
		LogoPath:         getEnv("LOGO_PATH", "uploads/logo.png"),
		SMTPServer:       getEnv("SMTP_SERVER", ""),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:    getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName:     getEnv("SMTP_FROM_NAME", "Billing"),
		SMTPArchiveBCC:   getEnv("SMTP_ARCHIVE_BCC", ""),
		SlackBotToken:    getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannel:     getEnv("SLACK_CHANNEL", ""),
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 0 8 * * *"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:    getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:        getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.10")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if config.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if config.SMTPTLS, err = strconv.ParseBool(getEnv("SMTP_TLS", "false")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_TLS: %w", err)
	}
	if config.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be one of sqlite, postgres, mysql (got %q)", c.DBDriver)
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("TAX_RATE must be between 0 and 1 (got %s)", c.TaxRate)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// RequireServe checks the settings only the HTTP server needs.
func (c *Config) RequireServe() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// EmailEnabled reports whether SMTP settings are complete enough to send mail.
func (c *Config) EmailEnabled() bool {
	return c.SMTPServer != "" && c.SMTPFromEmail != ""
}

// SlackEnabled reports whether a Slack bot token and channel are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// GetLoggerConfig returns the logger configuration
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
