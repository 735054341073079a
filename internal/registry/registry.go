// Package registry holds the authoritative mapping from service name to base URL.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a service name is not registered.
var ErrNotFound = errors.New("service not found in registry")

// Registry is a concurrency-safe name -> base URL map. Writes are single-key
// and last write wins.
type Registry struct {
	services map[string]string
	mu       sync.RWMutex
	logger   *zap.Logger
}

// New creates a registry populated with seed.
func New(seed map[string]string, logger *zap.Logger) *Registry {
	services := make(map[string]string, len(seed))
	for name, url := range seed {
		services[name] = url
	}

	return &Registry{
		services: services,
		logger:   logger,
	}
}

// Register inserts or overwrites a service.
func (r *Registry) Register(name, url string) {
	r.mu.Lock()
	prev, existed := r.services[name]
	r.services[name] = url
	r.mu.Unlock()

	if existed && prev != url {
		r.logger.Info("service re-registered",
			zap.String("service", name),
			zap.String("previous_url", prev),
			zap.String("url", url),
		)
		return
	}
	if !existed {
		r.logger.Info("service registered", zap.String("service", name), zap.String("url", url))
	}
}

// Deregister removes a service. Statuses and error log entries recorded for
// it elsewhere are left untouched.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.services, name)

	r.logger.Info("service deregistered", zap.String("service", name))
	return nil
}

// Resolve returns the base URL registered for name.
func (r *Registry) Resolve(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.services[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return url, nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.services[name]
	return ok
}

// List returns a copy of the current mapping.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]string, len(r.services))
	for name, url := range r.services {
		snapshot[name] = url
	}
	return snapshot
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}
