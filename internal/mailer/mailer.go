// Package mailer assembles outbound form emails as MIME messages and hands
// them to a mail transport.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/jhillyerd/enmime"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

const defaultAttachmentType = "text/csv"

// Envelope is a fully encoded message ready for submission
type Envelope struct {
	From string
	To   []string
	Data []byte
}

// Transport delivers encoded messages to a mail server
type Transport interface {
	Send(ctx context.Context, env Envelope) error
}

// DispatcherConfig holds configuration for the Dispatcher
type DispatcherConfig struct {
	// From accepts "addr@example.gov" or "Name <addr@example.gov>"
	From      string
	Transport Transport
	Logger    *slog.Logger
}

// Dispatcher builds MIME messages and submits them through a Transport
type Dispatcher struct {
	from      *mail.Address
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher creates a Dispatcher. The sender address must parse.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("mail transport is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		from:      from,
		transport: cfg.Transport,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Sender returns the envelope sender address
func (d *Dispatcher) Sender() string {
	return d.from.Address
}

// Dispatch encodes the email and submits it. Any failure is returned as
// a SendError wrapping the cause.
func (d *Dispatcher) Dispatch(ctx context.Context, email models.OutboundEmail, requestID string) error {
	if _, err := mail.ParseAddress(email.Recipient); err != nil {
		return apperrors.NewSendError(fmt.Errorf("invalid recipient %q: %w", email.Recipient, err))
	}

	raw, err := d.Build(email, requestID)
	if err != nil {
		return apperrors.NewSendError(err)
	}

	env := Envelope{
		From: d.from.Address,
		To:   []string{email.Recipient},
		Data: raw,
	}

	if err := d.transport.Send(ctx, env); err != nil {
		d.logger.Error("mail transport failed",
			slog.String("recipient", email.Recipient),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return apperrors.NewSendError(err)
	}

	d.logger.Info("email dispatched",
		slog.String("recipient", email.Recipient),
		slog.Int("attachments", len(email.Attachments)),
		slog.Int("bytes", len(raw)),
		slog.String("request_id", requestID))

	return nil
}

// Build encodes the email as a multipart MIME message with an HTML body
// and one part per attachment, in submission order
func (d *Dispatcher) Build(email models.OutboundEmail, requestID string) ([]byte, error) {
	builder := enmime.Builder().
		From(d.from.Name, d.from.Address).
		To("", email.Recipient).
		Subject(email.Subject).
		Date(d.now()).
		HTML([]byte(email.HTMLBody))

	if requestID != "" {
		builder = builder.Header(models.RequestIDMailHeader, requestID)
	}

	for _, att := range email.Attachments {
		contentType := att.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = defaultAttachmentType
		}
		builder = builder.AddAttachment(att.Content, contentType, att.Filename)
	}

	part, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build MIME message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode MIME message: %w", err)
	}

	return buf.Bytes(), nil
}
