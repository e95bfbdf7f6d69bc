package persist

import (
	"context"
	"sync"
)

// MockSaver is a deterministic Saver for testing. It returns canned errors
// in FIFO order (nil once the queue is empty) and records every call.
type MockSaver struct {
	mu    sync.Mutex
	errs  []error
	Calls []Payload
	Users []string
}

var _ Saver = (*MockSaver)(nil)

// NewMockSaver creates a MockSaver returning errs in order.
func NewMockSaver(errs ...error) *MockSaver {
	return &MockSaver{errs: errs}
}

func (m *MockSaver) SaveSession(_ context.Context, user string, p Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, p)
	m.Users = append(m.Users, user)
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

// CallCount returns the number of SaveSession calls made.
func (m *MockSaver) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastPayload returns the most recent payload, or false if none.
func (m *MockSaver) LastPayload() (Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Payload{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
