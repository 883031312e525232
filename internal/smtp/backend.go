// Package smtp implements a capture-only SMTP sink. It accepts the relayed
// form emails, decodes them with enmime and keeps them in an in-memory inbox
// so the relay can be exercised end to end without a real mail provider.
package smtp

import (
	"crypto/tls"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
)

// Security limits
const (
	DefaultMaxMessageSize = 150 * 1024 * 1024 // 150 MB, above the API upload limit after base64
	DefaultMaxRecipients  = 100
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Backend implements the go-smtp Backend interface
type Backend struct {
	inbox          *Inbox
	username       string
	password       string
	allowedDomains []string
	logger         *slog.Logger
}

// BackendConfig holds configuration for the SMTP backend
type BackendConfig struct {
	Inbox *Inbox
	// Username and Password enable AUTH PLAIN when both are set
	Username string
	Password string
	// AllowedDomains restricts recipients; empty accepts any domain
	AllowedDomains []string
	Logger         *slog.Logger
}

// NewBackend creates a new SMTP backend
func NewBackend(cfg *BackendConfig) *Backend {
	inbox := cfg.Inbox
	if inbox == nil {
		inbox = NewInbox(0)
	}

	domains := make([]string, 0, len(cfg.AllowedDomains))
	for _, d := range cfg.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}

	return &Backend{
		inbox:          inbox,
		username:       cfg.Username,
		password:       cfg.Password,
		allowedDomains: domains,
		logger:         cfg.Logger,
	}
}

// Inbox returns the inbox that receives accepted messages
func (b *Backend) Inbox() *Inbox {
	return b.inbox
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	if b.logger != nil {
		b.logger.Info("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	}
	return NewSession(b), nil
}

func (b *Backend) authRequired() bool {
	return b.username != "" && b.password != ""
}

func (b *Backend) domainAllowed(domain string) bool {
	if len(b.allowedDomains) == 0 {
		return true
	}
	for _, d := range b.allowedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowInsecure  bool
	TLSConfig      *tls.Config
	Username       string
	Password       string
	AllowedDomains []string
	InboxCapacity  int
}

// NewSecureServer creates a new SMTP server with security settings
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain

	if cfg.MaxMessageSize > 0 {
		s.MaxMessageBytes = cfg.MaxMessageSize
	} else {
		s.MaxMessageBytes = DefaultMaxMessageSize
	}

	if cfg.MaxRecipients > 0 {
		s.MaxRecipients = cfg.MaxRecipients
	} else {
		s.MaxRecipients = DefaultMaxRecipients
	}

	if cfg.ReadTimeout > 0 {
		s.ReadTimeout = cfg.ReadTimeout
	} else {
		s.ReadTimeout = DefaultReadTimeout
	}

	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	} else {
		s.WriteTimeout = DefaultWriteTimeout
	}

	s.AllowInsecureAuth = cfg.AllowInsecure

	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	s.MaxLineLength = DefaultMaxLineLength

	return s
}

// LoadServerConfigFromEnv loads sink configuration from MAILSINK_* variables
func LoadServerConfigFromEnv() *ServerConfig {
	cfg := &ServerConfig{
		Addr:          getEnvOrDefault("MAILSINK_ADDR", ":2525"),
		Domain:        getEnvOrDefault("MAILSINK_DOMAIN", "localhost"),
		AllowInsecure: getEnvBool("MAILSINK_ALLOW_INSECURE", true),
		Username:      os.Getenv("MAILSINK_USERNAME"),
		Password:      os.Getenv("MAILSINK_PASSWORD"),
	}

	if domains := os.Getenv("MAILSINK_ALLOWED_DOMAINS"); domains != "" {
		cfg.AllowedDomains = strings.Split(domains, ",")
	}

	if maxSize := os.Getenv("MAILSINK_MAX_MESSAGE_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil {
			cfg.MaxMessageSize = size
		}
	}

	if maxRecip := os.Getenv("MAILSINK_MAX_RECIPIENTS"); maxRecip != "" {
		if recip, err := strconv.Atoi(maxRecip); err == nil {
			cfg.MaxRecipients = recip
		}
	}

	if capacity := os.Getenv("MAILSINK_INBOX_CAPACITY"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil {
			cfg.InboxCapacity = n
		}
	}

	if readTimeout := os.Getenv("MAILSINK_READ_TIMEOUT"); readTimeout != "" {
		if timeout, err := time.ParseDuration(readTimeout); err == nil {
			cfg.ReadTimeout = timeout
		}
	}

	if writeTimeout := os.Getenv("MAILSINK_WRITE_TIMEOUT"); writeTimeout != "" {
		if timeout, err := time.ParseDuration(writeTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	// TLS is enabled only when both certificate and key are provided
	certFile := os.Getenv("MAILSINK_TLS_CERT")
	keyFile := os.Getenv("MAILSINK_TLS_KEY")
	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err == nil {
			cfg.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
