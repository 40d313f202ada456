package memory

import (
	"sync"

	"live-trivia-service/internal/domain"
)

// ConnectionRegistry is an in-memory implementation of app.ConnectionRegistry.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	memberships map[string]domain.Membership
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{memberships: make(map[string]domain.Membership)}
}

func (r *ConnectionRegistry) Bind(connID string, membership domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, bound := r.memberships[connID]; bound {
		return domain.ErrAlreadyInGame
	}
	r.memberships[connID] = membership
	return nil
}

func (r *ConnectionRegistry) Lookup(connID string) (domain.Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.memberships[connID]
	return m, ok
}

func (r *ConnectionRegistry) Unbind(connID string) (domain.Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memberships[connID]
	delete(r.memberships, connID)
	return m, ok
}

func (r *ConnectionRegistry) UnbindGame(code string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, m := range r.memberships {
		if m.Code == code {
			ids = append(ids, id)
			delete(r.memberships, id)
		}
	}
	return ids
}
