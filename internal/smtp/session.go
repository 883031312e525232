package smtp

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

var (
	errAuthRequired = &smtp.SMTPError{
		Code:         530,
		EnhancedCode: smtp.EnhancedCode{5, 7, 0},
		Message:      "Authentication required",
	}
	errUnknownMechanism = &smtp.SMTPError{
		Code:         504,
		EnhancedCode: smtp.EnhancedCode{5, 7, 4},
		Message:      "Unsupported authentication mechanism",
	}
	errInvalidCredentials = &smtp.SMTPError{
		Code:         535,
		EnhancedCode: smtp.EnhancedCode{5, 7, 8},
		Message:      "Invalid credentials",
	}
)

// Session implements the go-smtp Session and AuthSession interfaces
type Session struct {
	backend       *Backend
	authenticated bool
	from          string
	recipients    []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend:    backend,
		recipients: make([]string, 0),
	}
}

// AuthMechanisms advertises PLAIN when the sink has credentials configured
func (s *Session) AuthMechanisms() []string {
	if !s.backend.authRequired() {
		return nil
	}
	return []string{sasl.Plain}
}

// Auth handles the AUTH command
func (s *Session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, errUnknownMechanism
	}
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			if s.backend.logger != nil {
				s.backend.logger.Warn("SMTP authentication failed", slog.String("username", username))
			}
			return errInvalidCredentials
		}
		s.authenticated = true
		return nil
	}), nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	if s.backend.authRequired() && !s.authenticated {
		return errAuthRequired
	}
	s.from = from
	if s.backend.logger != nil {
		s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	}
	return nil
}

// Rcpt handles the RCPT TO command
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if s.backend.authRequired() && !s.authenticated {
		return errAuthRequired
	}

	_, domainName, err := parseEmailAddress(to)
	if err != nil {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient address",
		}
	}

	if !s.backend.domainAllowed(domainName) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Relaying denied",
		}
	}

	s.recipients = append(s.recipients, to)
	if s.backend.logger != nil {
		s.backend.logger.Debug("RCPT TO", slog.String("to", to))
	}
	return nil
}

// Data handles the DATA command - decodes and stores the message
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	parsedEmail, err := ParseEmail(bytes.NewReader(raw))
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	// Fall back to the envelope sender when the header is missing
	if parsedEmail.SenderEmail == "" {
		parsedEmail.SenderEmail = s.from
	}

	recipients := make([]string, len(s.recipients))
	copy(recipients, s.recipients)

	s.backend.inbox.Add(ReceivedMessage{
		EnvelopeFrom: s.from,
		Recipients:   recipients,
		ReceivedAt:   time.Now(),
		Size:         int64(len(raw)),
		Email:        parsedEmail,
	})

	if s.backend.logger != nil {
		s.backend.logger.Info("email received",
			slog.String("from", s.from),
			slog.Int("recipients", len(recipients)),
			slog.String("subject", parsedEmail.Subject),
			slog.String("request_id", parsedEmail.RequestID),
			slog.Int("attachments", len(parsedEmail.Attachments)))
	}

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// parseEmailAddress parses an email address into local part and domain
func parseEmailAddress(address string) (localPart, domain string, err error) {
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	address = strings.TrimSpace(address)

	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}

	localPart = strings.ToLower(parts[0])
	domain = strings.ToLower(parts[1])

	if localPart == "" || domain == "" {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}

	return localPart, domain, nil
}
