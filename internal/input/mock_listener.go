package input

import (
	"sync"

	"github.com/zsiec/pulse/internal/clock"
)

// MockListener is an injectable input backend for tests and headless
// diagnostic runs.
type MockListener struct {
	mu      sync.Mutex
	clock   *clock.Clock
	pending []KeyEvent
	started bool
	closed  bool
}

// NewMockListener creates a listener timestamping injected presses
// against the given master clock.
func NewMockListener(c *clock.Clock) *MockListener {
	return &MockListener{clock: c}
}

// Inject queues a keypress timestamped now.
func (m *MockListener) Inject(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, KeyEvent{Key: key, Timestamp: m.clock.Now()})
}

// InjectAt queues a keypress with an explicit timestamp.
func (m *MockListener) InjectAt(ev KeyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, ev)
}

// StartListening implements Listener.
func (m *MockListener) StartListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

// Poll returns and clears all pending events.
func (m *MockListener) Poll() []KeyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}

// Close implements Listener.
func (m *MockListener) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Started reports whether StartListening was called.
func (m *MockListener) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Closed reports whether Close was called.
func (m *MockListener) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
