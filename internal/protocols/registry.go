package protocols

import (
	"sort"
	"sync"

	"sentinel/pkg/errors"
)

// Registry dispatches protocol identifiers to their adapters.
// New protocols register a Source; nothing else grows with the protocol count.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a protocol source, replacing any previous one with the same ID
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.ID()] = s
}

// Get returns the source for a protocol ID
func (r *Registry) Get(id string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "protocol %q not registered", id)
	}
	return s, nil
}

// IDs returns all registered protocol IDs, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
