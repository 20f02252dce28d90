package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/chainreact/chainreact-sim/sim"
)

// ErrNotFound is returned for ids that name no live session.
var ErrNotFound = errors.New("simulation not found")

// Registry tracks live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session with a random id.
func (r *Registry) Create(cfg sim.EngineConfig) *Session {
	s := New(uuid.NewString(), cfg)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Inject forwards a disruption to the session for id.
func (r *Registry) Inject(ctx context.Context, id string, d sim.Disruption) (sim.Event, error) {
	s, err := r.Get(id)
	if err != nil {
		return sim.Event{}, err
	}
	return s.Inject(ctx, d), nil
}

// Remove forgets id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
