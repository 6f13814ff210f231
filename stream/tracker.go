package stream

import "sync"

// Tracker indexes live sessions by connection id so out-of-band callers, such
// as the REST subscription handlers, can reach a connection's lifecycle state
// machine instead of talking to the hub behind its back. Sessions register on
// Activate and deregister on Close.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// Get returns the session for a connection id, if it is still live.
func (t *Tracker) Get(connID string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[connID]
	return s, ok
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

func (t *Tracker) add(s *Session) {
	t.mu.Lock()
	t.sessions[s.id] = s
	t.mu.Unlock()
}

func (t *Tracker) remove(connID string) {
	t.mu.Lock()
	delete(t.sessions, connID)
	t.mu.Unlock()
}
