package email

import (
	"context"
	"fmt"
	"sync"
)

// MockSender is a mock email sender for testing. It records every message
// instead of delivering it.
type MockSender struct {
	// SendFunc allows customizing send behavior
	SendFunc func(ctx context.Context, email *Email) (string, error)

	mu   sync.Mutex
	Sent []*Email
}

// NewMockSender creates a new mock email sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send records the email and returns a synthetic message ID.
func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return fmt.Sprintf("mock-%d", len(m.Sent)), nil
}

// SentCount returns how many messages have been recorded.
func (m *MockSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

var _ Sender = (*MockSender)(nil)
