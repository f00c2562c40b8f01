// Package registry is the thread-safe service registry spec §5 calls for:
// "no per-service in-memory state beyond a thread-safe service registry used
// as a factory." It holds one store.Store and hands out the three core
// services over it, constructed once and safe to share across concurrent
// callers (the services themselves are stateless beyond their store handle).
package registry

import (
	"sync"

	"github.com/you/trainctl/internal/carordersvc"
	"github.com/you/trainctl/internal/sessionsvc"
	"github.com/you/trainctl/internal/store"
	"github.com/you/trainctl/internal/trainsvc"
)

// Registry is a factory over a single store.Store. The zero value is not
// usable; use New.
type Registry struct {
	mu sync.RWMutex

	store store.Store

	sessions   *sessionsvc.Service
	carOrders  *carordersvc.Service
	trains     *trainsvc.Service
}

// New builds a Registry over s, constructing every service once.
func New(s store.Store) *Registry {
	sessions := sessionsvc.New(s)
	return &Registry{
		store:     s,
		sessions:  sessions,
		carOrders: carordersvc.New(s, sessions),
		trains:    trainsvc.New(s),
	}
}

// Sessions returns the shared SessionService.
func (r *Registry) Sessions() *sessionsvc.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions
}

// CarOrders returns the shared CarOrderService.
func (r *Registry) CarOrders() *carordersvc.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carOrders
}

// Trains returns the shared TrainService.
func (r *Registry) Trains() *trainsvc.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trains
}

// Store returns the underlying store, for callers that need raw collection
// access the services don't expose.
func (r *Registry) Store() store.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// Swap replaces the backing store and rebuilds every service over it. The
// CLI does not call it; it builds a new Registry for each command.
func (r *Registry) Swap(s store.Store) {
	sessions := sessionsvc.New(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = s
	r.sessions = sessions
	r.carOrders = carordersvc.New(s, sessions)
	r.trains = trainsvc.New(s)
}
