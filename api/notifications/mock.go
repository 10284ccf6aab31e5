package notifications

import (
	"context"
	"sync"
)

// MockEmailProvider records emails instead of sending them. Used in
// tests and when running locally without provider credentials.
type MockEmailProvider struct {
	mu   sync.Mutex
	Err  error
	sent []EmailMessage
}

// Send records the message and returns the configured error, if any.
func (m *MockEmailProvider) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockEmailProvider) Sent() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
