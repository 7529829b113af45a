package relay

import "sync"

// Registry maps a user identity to its single live connection. It is the only
// state shared across connection goroutines; every access goes through one
// mutex so two concurrent authenticates for the same identity cannot
// interleave and leave two live sockets behind.
type Registry struct {
	mu    sync.Mutex
	conns map[uint]*Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]*Client)}
}

// Register stores the mapping for userID. An existing connection under the
// same identity is closed first so a stale socket never keeps receiving
// broadcasts for a user who reconnected.
func (r *Registry) Register(userID uint, c *Client) {
	r.mu.Lock()
	prev, ok := r.conns[userID]
	r.conns[userID] = c
	r.mu.Unlock()

	if ok && prev != c {
		prev.Close()
	}
}

// Unregister removes the mapping if it still points at the departing
// connection. The guard keeps a replaced socket's late close handler from
// evicting the replacement. Calling it twice is a no-op the second time.
// Reports whether the identity became unreachable.
func (r *Registry) Unregister(userID uint, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID uint) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[userID]
	return c, ok
}

// Snapshot returns the identities currently registered. Fan-out iterates over
// a snapshot so a slow recipient never holds the registry lock.
func (r *Registry) Snapshot() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}
