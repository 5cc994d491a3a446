package history

import "sync"

// Memory is an in-process history stack.
type Memory struct {
	listeners
	path    string
	entries []string
	pos     int
	mu      sync.Mutex
	enabled bool
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithInitialToken sets the token of the first history entry.
func WithInitialToken(token string) MemoryOption {
	return func(m *Memory) {
		m.entries[0] = token
	}
}

// WithPath sets the location pathname reported by Path.
func WithPath(path string) MemoryOption {
	return func(m *Memory) {
		m.path = path
	}
}

// NewMemory creates a history stack holding a single empty entry.
// The backend starts disabled; the router enables it.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: []string{""},
		path:    "/",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the current entry.
func (m *Memory) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.pos]
}

// Path returns the configured location pathname.
func (m *Memory) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// SetPath changes the location pathname without notifying listeners.
func (m *Memory) SetPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = path
}

// SetEnabled turns notifications on or off.
func (m *Memory) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Listen subscribes to navigate notifications.
func (m *Memory) Listen(l Listener) func() {
	return m.listen(l)
}

// SetToken pushes token, dropping any forward entries.
// Setting the current token again is a no-op.
func (m *Memory) SetToken(token string) {
	m.push(token, false)
}

// Visit pushes token as if the user had typed it into the address bar.
func (m *Memory) Visit(token string) {
	m.push(token, true)
}

// Replace overwrites the current entry and notifies listeners.
func (m *Memory) Replace(token string) {
	m.mu.Lock()
	if m.entries[m.pos] == token {
		m.mu.Unlock()
		return
	}
	m.entries[m.pos] = token
	enabled := m.enabled
	m.mu.Unlock()

	if enabled {
		m.notify(Event{Token: token})
	}
}

// Back moves one entry back. It reports false at the start of the stack.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves one entry forward. It reports false at the end of the stack.
func (m *Memory) Forward() bool {
	return m.move(1)
}

// Entries returns a copy of the history stack.
func (m *Memory) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...)
}

func (m *Memory) push(token string, navigation bool) {
	m.mu.Lock()
	if m.entries[m.pos] == token {
		m.mu.Unlock()
		return
	}
	m.entries = append(m.entries[:m.pos+1], token)
	m.pos++
	enabled := m.enabled
	m.mu.Unlock()

	if enabled {
		m.notify(Event{Token: token, IsNavigation: navigation})
	}
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	next := m.pos + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.pos = next
	token := m.entries[next]
	enabled := m.enabled
	m.mu.Unlock()

	if enabled {
		m.notify(Event{Token: token, IsNavigation: true})
	}
	return true
}
