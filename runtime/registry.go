package runtime

import (
	"sync"
)

// Registry is the single directory of live connections, keyed by
// principal. Room membership lives with the rooms, not here: even if
// a user hops between rooms their connection is managed in one place.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
	}
}

// Register installs the connection as the live one for its principal.
// A second login for the same principal replaces the first: the
// previous connection is returned so the caller can close it.
func (r *Registry) Register(conn *Connection) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.conns[conn.Principal.UserID]
	r.conns[conn.Principal.UserID] = conn
	return previous
}

// Remove drops the mapping only if it still points at this very
// connection. A stale handle from before a replacement is a no-op.
func (r *Registry) Remove(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[conn.Principal.UserID]
	if !ok || current != conn {
		return false
	}
	delete(r.conns, conn.Principal.UserID)
	return true
}

func (r *Registry) Get(principalID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[principalID]
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot copies the live connection list for diagnostics.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// TotalDropped sums queue overflow losses across live connections.
func (r *Registry) TotalDropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total uint64
	for _, conn := range r.conns {
		total += conn.Dropped()
	}
	return total
}
