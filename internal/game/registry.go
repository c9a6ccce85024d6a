package game

import "sync"

// Registry maps room ids to running sessions. It is the only structure
// shared across sessions and supports concurrent insertion/removal as
// games start and end.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under its room id.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.RoomID] = s
}

// Get returns the session for a room, or nil.
func (r *Registry) Get(roomID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[roomID]
}

// Remove drops a room's session.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomID)
}

// Len returns the number of running sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
