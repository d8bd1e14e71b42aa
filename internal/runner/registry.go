package runner

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps service names to their builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds a builder. Names must be unique and non-empty.
func (r *Registry) Register(b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if name == "" {
		return fmt.Errorf("builder with empty name")
	}
	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.builders[name] = b
	return nil
}

// Get retrieves a builder by name.
func (r *Registry) Get(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[name]
	return b, ok
}

// Names returns the registered service names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
