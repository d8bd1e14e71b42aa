package collector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps collector names to collectors.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry.
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// Register adds a collector to the registry.
func (r *Registry) Register(c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.collectors[name]; exists {
		return fmt.Errorf("collector %s already registered", name)
	}

	r.collectors[name] = c
	return nil
}

// Get retrieves a collector by name.
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collectors[name]
	return c, ok
}

// Names returns the registered collector names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves names to collectors, in the order given. An unknown name is
// an error.
func (r *Registry) Select(names []string) ([]Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Collector, 0, len(names))
	for _, name := range names {
		c, ok := r.collectors[name]
		if !ok {
			return nil, fmt.Errorf("unknown collector %q", name)
		}
		result = append(result, c)
	}
	return result, nil
}

// DefaultRegistry creates a registry with all collectors pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	_ = r.Register(NewCPUCollector())
	_ = r.Register(NewMemoryCollector())
	_ = r.Register(NewUptimeCollector())

	return r
}
