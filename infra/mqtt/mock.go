package mqtt

import (
	"errors"
	"sync"
)

// MockNotifier records published payloads per topic, for tests.
type MockNotifier struct {
	mu       sync.Mutex
	Messages map[string][]any
	Fail     bool
	Err      error
	closed   bool
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Messages: make(map[string][]any)}
}

// Publish records the payload or returns the configured error.
func (m *MockNotifier) Publish(topic string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		if m.Err != nil {
			return m.Err
		}
		return errors.New("publish failed")
	}
	m.Messages[topic] = append(m.Messages[topic], payload)
	return nil
}

// Published returns the payloads recorded for the topic.
func (m *MockNotifier) Published(topic string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.Messages[topic]...)
}

// Close marks the notifier closed.
func (m *MockNotifier) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
