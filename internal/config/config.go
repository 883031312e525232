package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Size defaults for uploads
const (
	DefaultMaxFileSize   int64 = 10 * 1024 * 1024
	DefaultMaxUploadSize int64 = 100 * 1024 * 1024
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Logging
	LogLevel  string
	LogFormat string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Outbound SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLSMode  string
	SMTPTimeout  time.Duration

	// Mail
	MailFrom             string
	MailDefaultRecipient string

	// Uploads
	MaxFileSize   int64
	MaxUploadSize int64
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set take precedence. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.APIPort, err = intFromEnv("API_PORT", 8080); err != nil {
		return nil, err
	}

	cfg.LogLevel = stringFromEnv("LOG_LEVEL", "info")
	cfg.LogFormat = stringFromEnv("LOG_FORMAT", "json")

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = stringFromEnv("APP_ENV", "development")

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	// Required: SMTP_HOST
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required but not set")
	}
	if cfg.SMTPPort, err = intFromEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPTLSMode = strings.ToLower(stringFromEnv("SMTP_TLS_MODE", "starttls"))

	cfg.SMTPTimeout = 30 * time.Second
	if timeout := os.Getenv("SMTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("SMTP_TIMEOUT must be a valid duration: %w", err)
		}
		cfg.SMTPTimeout = d
	}

	// Required: MAIL_FROM and MAIL_DEFAULT_RECIPIENT
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		return nil, fmt.Errorf("MAIL_FROM is required but not set")
	}
	cfg.MailDefaultRecipient = os.Getenv("MAIL_DEFAULT_RECIPIENT")
	if cfg.MailDefaultRecipient == "" {
		return nil, fmt.Errorf("MAIL_DEFAULT_RECIPIENT is required but not set")
	}

	if cfg.MaxFileSize, err = int64FromEnv("MAX_FILE_SIZE", DefaultMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = int64FromEnv("MAX_UPLOAD_SIZE", DefaultMaxUploadSize); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	switch c.SMTPTLSMode {
	case "none", "starttls", "tls":
	default:
		return fmt.Errorf("SMTP_TLS_MODE must be one of none, starttls, tls")
	}
	if c.SMTPTimeout <= 0 {
		return fmt.Errorf("SMTP_TIMEOUT must be positive")
	}
	if _, err := mail.ParseAddress(c.MailFrom); err != nil {
		return fmt.Errorf("MAIL_FROM is not a valid address: %w", err)
	}
	if _, err := mail.ParseAddress(c.MailDefaultRecipient); err != nil {
		return fmt.Errorf("MAIL_DEFAULT_RECIPIENT is not a valid address: %w", err)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.MaxUploadSize < c.MaxFileSize {
		return fmt.Errorf("MAX_UPLOAD_SIZE must not be smaller than MAX_FILE_SIZE")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if strings.HasPrefix(c.DatabaseURL, "sqlite:") {
		return fmt.Errorf("sqlite is not allowed in production")
	}

	if c.SMTPTLSMode == "none" {
		return fmt.Errorf("SMTP_TLS_MODE=none is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("log_format", c.LogFormat),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.String("smtp_host", c.SMTPHost),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("smtp_tls_mode", c.SMTPTLSMode),
		slog.Bool("smtp_auth", c.SMTPUsername != ""),
		slog.Duration("smtp_timeout", c.SMTPTimeout),
		slog.String("mail_from", c.MailFrom),
		slog.String("mail_default_recipient", c.MailDefaultRecipient),
		slog.Int64("max_file_size", c.MaxFileSize),
		slog.Int64("max_upload_size", c.MaxUploadSize),
	)
}

func stringFromEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
