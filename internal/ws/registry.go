package ws

import (
	"sort"
	"sync"
)

// Conn is one live socket as seen by the hub. The user id is fixed at
// authentication time.
type Conn interface {
	ID() string
	UserID() string
	Send(payload []byte) error
	Close() error
}

// Registry maps a user to the set of that user's live connections.
// A user key exists only while its set is non-empty, so "online" is simply
// "has a key".
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]map[string]Conn)}
}

// Register adds c to its user's set and reports whether it is the user's
// first live connection. Registering the same connection twice is harmless.
func (r *Registry) Register(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[c.UserID()]
	if !ok {
		conns = make(map[string]Conn)
		r.users[c.UserID()] = conns
	}
	conns[c.ID()] = c
	return !ok
}

// Unregister removes the connection and reports whether it was the user's
// last one. Unknown connections are a no-op and never report last.
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		return false
	}
	if _, ok := conns[connID]; !ok {
		return false
	}

	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

// ConnectionsFor returns a snapshot of the user's connections; empty when offline.
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[userID]
	return ok
}

// OnlineUsers returns the sorted ids of every user with a live connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.users))
	for userID := range r.users {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conn
	for _, conns := range r.users {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Stats() (users, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users = len(r.users)
	for _, c := range r.users {
		conns += len(c)
	}
	return users, conns
}
