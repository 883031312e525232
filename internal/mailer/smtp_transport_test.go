package mailer

import (
	"context"
	"crypto/tls"
	"net"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sink "github.com/welldanyogia/webrana-formmail-backend/internal/smtp"
)

// startSink runs the capture SMTP server on a loopback port
func startSink(t *testing.T, cfg *sink.BackendConfig) (*sink.Backend, string, int) {
	t.Helper()
	return startSinkWithTLS(t, cfg, nil)
}

// startSinkWithTLS is startSink with STARTTLS offered when tlsConfig is set
func startSinkWithTLS(t *testing.T, cfg *sink.BackendConfig, tlsConfig *tls.Config) (*sink.Backend, string, int) {
	t.Helper()

	backend := sink.NewBackend(cfg)
	server := sink.NewSecureServer(backend, &sink.ServerConfig{
		Domain:        "localhost",
		AllowInsecure: true,
		TLSConfig:     tlsConfig,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go server.Serve(ln)
	t.Cleanup(func() { server.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return backend, host, port
}

func TestSMTPTransport_DeliversToSink(t *testing.T) {
	backend, host, port := startSink(t, &sink.BackendConfig{})

	transport := NewSMTPTransport(SMTPConfig{Host: host, Port: port, TLSMode: TLSModeNone, Timeout: 5 * time.Second}, nil)
	d := newTestDispatcher(t, transport)

	require.NoError(t, d.Dispatch(context.Background(), sampleEmail(), "req-42"))

	messages := backend.Inbox().Messages()
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.Equal(t, "noreply@example.gov", msg.EnvelopeFrom)
	assert.Equal(t, []string{"dados@example.gov"}, msg.Recipients)
	assert.Equal(t, "req-42", msg.Email.RequestID)
	assert.Equal(t, []string{"dados.csv", "extra.csv"}, msg.Email.AttachmentNames())
}

func TestSMTPTransport_AuthenticatesWithPlain(t *testing.T) {
	backend, host, port := startSink(t, &sink.BackendConfig{Username: "relay", Password: "secret"})

	transport := NewSMTPTransport(SMTPConfig{
		Host: host, Port: port, TLSMode: TLSModeNone,
		Username: "relay", Password: "secret",
	}, nil)

	require.NoError(t, newTestDispatcher(t, transport).Dispatch(context.Background(), sampleEmail(), ""))
	assert.Equal(t, 1, backend.Inbox().Len())
}

func TestSMTPTransport_WrongCredentials(t *testing.T) {
	backend, host, port := startSink(t, &sink.BackendConfig{Username: "relay", Password: "secret"})

	transport := NewSMTPTransport(SMTPConfig{
		Host: host, Port: port, TLSMode: TLSModeNone,
		Username: "relay", Password: "wrong",
	}, nil)

	err := transport.Send(context.Background(), Envelope{
		From: "noreply@example.gov",
		To:   []string{"dados@example.gov"},
		Data: []byte("Subject: x\r\n\r\nbody\r\n"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticate")
	assert.Zero(t, backend.Inbox().Len())
}

func TestSMTPTransport_StartTLSUnsupported(t *testing.T) {
	backend, host, port := startSink(t, &sink.BackendConfig{})

	transport := NewSMTPTransport(SMTPConfig{Host: host, Port: port, TLSMode: TLSModeStartTLS}, nil)

	err := transport.Send(context.Background(), Envelope{
		From: "noreply@example.gov",
		To:   []string{"dados@example.gov"},
		Data: []byte("Subject: x\r\n\r\nbody\r\n"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to "+net.JoinHostPort(host, strconv.Itoa(port)))
	assert.Contains(t, err.Error(), "STARTTLS")
	assert.Zero(t, backend.Inbox().Len())
}

func TestSMTPTransport_DeliversOverStartTLS(t *testing.T) {
	// Borrow the self-signed loopback certificate of an httptest TLS server
	ts := httptest.NewTLSServer(nil)
	cert := ts.TLS.Certificates[0]
	ts.Close()

	backend, host, port := startSinkWithTLS(t, &sink.BackendConfig{}, &tls.Config{
		Certificates: []tls.Certificate{cert},
	})

	transport := NewSMTPTransport(SMTPConfig{
		Host:      host,
		Port:      port,
		TLSMode:   TLSModeStartTLS,
		Timeout:   5 * time.Second,
		TLSConfig: &tls.Config{InsecureSkipVerify: true},
	}, nil)

	err := transport.Send(context.Background(), Envelope{
		From: "noreply@example.gov",
		To:   []string{"dados@example.gov"},
		Data: []byte("Subject: x\r\n\r\nbody\r\n"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, backend.Inbox().Len())
}

func TestSMTPTransport_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	transport := NewSMTPTransport(SMTPConfig{Host: "127.0.0.1", Port: addr.Port, TLSMode: TLSModeNone}, nil)

	err = transport.Send(context.Background(), Envelope{From: "a@example.gov", To: []string{"b@example.gov"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to")
}

func TestSMTPTransport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := NewSMTPTransport(SMTPConfig{Host: "127.0.0.1", Port: 1}, nil)

	err := transport.Send(ctx, Envelope{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSMTPTransport_Defaults(t *testing.T) {
	transport := NewSMTPTransport(SMTPConfig{Host: "smtp.example.gov", Port: 587}, nil)

	assert.Equal(t, TLSModeStartTLS, transport.cfg.TLSMode)
	assert.Equal(t, DefaultSMTPTimeout, transport.cfg.Timeout)
	assert.Equal(t, "smtp.example.gov:587", transport.Addr())
	assert.Equal(t, "smtp.example.gov", transport.tlsConfig().ServerName)
}
