package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is the minimal connection surface the registry and bridge need.
// *websocket.Conn satisfies it via the session wrapper; tests substitute
// their own implementation.
type Conn interface {
	// WriteJSON serializes v and sends it as one message.
	WriteJSON(v any) error
	// Close tears the connection down.
	Close() error
}

// Session binds one authenticated user to one live connection. Writes are
// serialized through the session's mutex since multiple mutations may push
// to the same recipient concurrently.
type Session struct {
	UserID uuid.UUID

	mu   sync.Mutex
	conn Conn
}

// NewSession wraps an established, authenticated connection.
func NewSession(userID uuid.UUID, conn Conn) *Session {
	return &Session{UserID: userID, conn: conn}
}

// Send writes one message to the connection.
func (s *Session) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Registry is the process-wide mapping from user identity to their active
// session. At most one session per user: a fresh bind silently supersedes
// the previous one (no close is forced on the old connection). The registry
// holds no persistent state; it starts empty on every process start and
// clients re-authenticate to re-bind.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Bind registers the session as the user's active connection, superseding
// any previous one. Only called after connection authentication succeeds.
func (r *Registry) Bind(userID uuid.UUID, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = session
}

// Unbind removes the user's mapping if present; no-op if absent.
func (r *Registry) Unbind(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// UnbindSession removes the mapping only if the given session is still the
// bound one. The disconnect path uses this so that tearing down a stale
// connection never evicts a newer one the user has since established.
func (r *Registry) UnbindSession(userID uuid.UUID, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[userID]; ok && current == session {
		delete(r.sessions, userID)
	}
}

// Lookup returns the user's active session, or nil when the user has none.
// "Not found" is an expected, non-exceptional outcome.
func (r *Registry) Lookup(userID uuid.UUID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// Len reports the number of bound sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
