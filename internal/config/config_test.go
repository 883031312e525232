package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SMTP_HOST", "smtp.example.gov")
	t.Setenv("MAIL_FROM", "noreply@example.gov")
	t.Setenv("MAIL_DEFAULT_RECIPIENT", "dados@example.gov")
}

func validConfig() *Config {
	return &Config{
		DatabaseURL:          "postgres://localhost/test",
		APIPort:              8080,
		AppEnv:               "production",
		APIKey:               "test-key",
		SMTPHost:             "smtp.example.gov",
		SMTPPort:             587,
		SMTPTLSMode:          "starttls",
		SMTPTimeout:          30 * time.Second,
		MailFrom:             "Sistema <noreply@example.gov>",
		MailDefaultRecipient: "dados@example.gov",
		MaxFileSize:          DefaultMaxFileSize,
		MaxUploadSize:        DefaultMaxUploadSize,
	}
}

func TestLoad_RequiredVariables(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"smtp host", "SMTP_HOST"},
		{"mail from", "MAIL_FROM"},
		{"default recipient", "MAIL_DEFAULT_RECIPIENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset+" is required")
		})
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)
	for _, key := range []string{
		"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "APP_ENV", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_BURST",
		"SMTP_PORT", "SMTP_TLS_MODE", "SMTP_TIMEOUT", "MAX_FILE_SIZE", "MAX_UPLOAD_SIZE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 10.0, cfg.RateLimitRequests)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "starttls", cfg.SMTPTLSMode)
	assert.Equal(t, 30*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxUploadSize)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_TLS_MODE", "TLS")
	t.Setenv("SMTP_TIMEOUT", "5s")
	t.Setenv("SMTP_USERNAME", "relay")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("MAX_FILE_SIZE", "2048")
	t.Setenv("API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, "tls", cfg.SMTPTLSMode)
	assert.Equal(t, 5*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, "relay", cfg.SMTPUsername)
	assert.Equal(t, "secret", cfg.SMTPPassword)
	assert.Equal(t, int64(2048), cfg.MaxFileSize)
	assert.Equal(t, "key", cfg.APIKey)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"API_PORT", "abc"},
		{"SMTP_PORT", "x"},
		{"SMTP_TIMEOUT", "soon"},
		{"MAX_FILE_SIZE", "10MB"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.APIPort = 70000 }, "APIPort"},
		{"bad smtp port", func(c *Config) { c.SMTPPort = 0 }, "SMTPPort"},
		{"bad tls mode", func(c *Config) { c.SMTPTLSMode = "ssl" }, "SMTP_TLS_MODE"},
		{"bad sender", func(c *Config) { c.MailFrom = "nobody" }, "MAIL_FROM"},
		{"bad recipient", func(c *Config) { c.MailDefaultRecipient = "x@" }, "MAIL_DEFAULT_RECIPIENT"},
		{"upload smaller than file", func(c *Config) { c.MaxUploadSize = 1 }, "MAX_UPLOAD_SIZE"},
		{"zero file size", func(c *Config) { c.MaxFileSize = 0 }, "MAX_FILE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProduction(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"requires api key", func(c *Config) { c.APIKey = "" }, "API_KEY is required"},
		{"no wildcard origins", func(c *Config) { c.AllowedOrigins = "*" }, "wildcard"},
		{"no sslmode disable", func(c *Config) { c.DatabaseURL += "?sslmode=disable" }, "sslmode=disable"},
		{"no sqlite", func(c *Config) { c.DatabaseURL = "sqlite:audit.db" }, "sqlite"},
		{"no plaintext smtp", func(c *Config) { c.SMTPTLSMode = "none" }, "SMTP_TLS_MODE=none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateProduction()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithValidation_FailFast(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_KEY", "")

	_, err := LoadWithValidation()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY is required")
}

func TestLoadWithValidation_DevelopmentAllowsInsecure(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "sqlite:file::memory:")
	t.Setenv("SMTP_TLS_MODE", "none")
	t.Setenv("API_KEY", "")

	cfg, err := LoadWithValidation()
	require.NoError(t, err)
	assert.False(t, cfg.IsProduction())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FORMMAIL_DOTENV_TEST=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FORMMAIL_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("FORMMAIL_DOTENV_TEST"))
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FORMMAIL_DOTENV_KEEP=from-file\n"), 0o600))
	t.Setenv("FORMMAIL_DOTENV_KEEP", "from-env")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("FORMMAIL_DOTENV_KEEP"))
}
