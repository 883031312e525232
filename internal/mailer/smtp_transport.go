package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// TLS modes for the outbound SMTP connection
const (
	TLSModeNone     = "none"
	TLSModeStartTLS = "starttls"
	TLSModeTLS      = "tls"
)

// DefaultSMTPTimeout bounds each SMTP command and the DATA submission
const DefaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds connection settings for the outbound mail server
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string
	Timeout  time.Duration
	// TLSConfig overrides the default client TLS settings
	TLSConfig *tls.Config
}

// SMTPTransport submits messages to an SMTP server with go-smtp.
// A new connection is opened for every message.
type SMTPTransport struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPTransport creates a new SMTP transport
func NewSMTPTransport(cfg SMTPConfig, logger *slog.Logger) *SMTPTransport {
	if cfg.TLSMode == "" {
		cfg.TLSMode = TLSModeStartTLS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

// Addr returns host:port of the mail server
func (t *SMTPTransport) Addr() string {
	return net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
}

// Send delivers the envelope. Cancelling ctx aborts the connection.
func (t *SMTPTransport) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := t.dial()
	if err != nil {
		return fmt.Errorf("connect to %s: %w", t.Addr(), err)
	}
	defer c.Close()

	c.CommandTimeout = t.cfg.Timeout
	c.SubmissionTimeout = t.cfg.Timeout

	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	if err := t.submit(c, env); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		return err
	}

	if err := c.Quit(); err != nil {
		// The server already accepted the message
		t.logger.Debug("SMTP QUIT failed", slog.String("addr", t.Addr()), slog.Any("error", err))
	}

	return nil
}

func (t *SMTPTransport) submit(c *smtp.Client, env Envelope) error {
	if t.cfg.Username != "" {
		auth := sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
	}

	if err := c.SendMail(env.From, env.To, bytes.NewReader(env.Data)); err != nil {
		return fmt.Errorf("submit message: %w", err)
	}

	return nil
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	switch t.cfg.TLSMode {
	case TLSModeTLS:
		return smtp.DialTLS(t.Addr(), t.tlsConfig())
	case TLSModeStartTLS:
		// STARTTLS is negotiated right after EHLO; a server without it is refused
		return smtp.DialStartTLS(t.Addr(), t.tlsConfig())
	default:
		return smtp.Dial(t.Addr())
	}
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	if t.cfg.TLSConfig != nil {
		return t.cfg.TLSConfig
	}
	return &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
}
