package services

import "sync"

// SessionConn is the minimal handle the registry keeps per live session.
type SessionConn interface {
	Close() error
}

// SessionRegistry maps session ids to live duplex connections. All access is
// mutex-guarded; the registry is shared across connection goroutines.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]SessionConn
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]SessionConn)}
}

// Register stores conn under id. Duplicate-id policy: the new connection
// replaces the old one, and the displaced handle is returned so the caller
// can notify and close it rather than leave it silently orphaned.
func (r *SessionRegistry) Register(id string, conn SessionConn) SessionConn {
	r.mu.Lock()
	defer r.mu.Unlock()

	displaced := r.sessions[id]
	r.sessions[id] = conn
	if displaced == conn {
		return nil
	}
	return displaced
}

// Deregister removes id only while it still maps to conn, so the cleanup of
// a displaced connection cannot tear down its replacement.
func (r *SessionRegistry) Deregister(id string, conn SessionConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[id] == conn {
		delete(r.sessions, id)
	}
}

// IsConnected reports whether a session id is currently registered.
func (r *SessionRegistry) IsConnected(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[id]
	return ok
}

// Count returns the number of currently registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
