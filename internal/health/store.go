package health

import (
	"sync"

	"github.com/TorkeTejas/bus-management-cc/internal/model"
)

// StatusStore keeps the latest ServiceStatus per service name. Every Set
// overwrites the previous record; concurrent writers resolve last write wins.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]model.ServiceStatus
}

// NewStatusStore creates an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]model.ServiceStatus),
	}
}

// Set overwrites the status for status.ServiceName.
func (s *StatusStore) Set(status model.ServiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.ServiceName] = status
}

// Get returns the current status for name.
func (s *StatusStore) Get(name string) (model.ServiceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[name]
	return status, ok
}

// All returns a copy of every stored status, including names that have
// since been deregistered.
func (s *StatusStore) All() map[string]model.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.ServiceStatus, len(s.statuses))
	for name, status := range s.statuses {
		out[name] = status
	}
	return out
}

// Len returns the number of stored statuses.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses)
}
