package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/welldanyogia/webrana-formmail-backend/internal/mailer"
)

// MockTransport implements mailer.Transport and keeps every envelope it
// was asked to send
type MockTransport struct {
	mock.Mock

	mu   sync.Mutex
	sent []mailer.Envelope
}

// NewMockTransport creates a new MockTransport instance
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send records the envelope and returns the configured error
func (m *MockTransport) Send(ctx context.Context, env mailer.Envelope) error {
	m.mu.Lock()
	m.sent = append(m.sent, env)
	m.mu.Unlock()

	args := m.Called(ctx, env)
	return args.Error(0)
}

// Sent returns a copy of the recorded envelopes
func (m *MockTransport) Sent() []mailer.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mailer.Envelope, len(m.sent))
	copy(out, m.sent)
	return out
}
