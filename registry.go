package components

import (
	"sort"
	"sync"
)

// Registry maps component names to implementations. Reads during render are
// concurrent; registration is expected to be infrequent (usually at process
// start), so a read-write lock is sufficient.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

func NewRegistry() *Registry {
	return &Registry{components: map[string]Component{}}
}

// Register binds a name to a component, replacing any previous binding.
func (r *Registry) Register(name string, c Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = c
}

func (r *Registry) Get(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// All returns the registered names, sorted.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = map[string]Component{}
}

// defaultRegistry is the process-wide registry used by engines that were not
// given one explicitly. Render paths always go through an Engine's registry
// field, so an alternate registry can be injected per engine.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a component to the process-wide registry.
func Register(name string, c Component) {
	defaultRegistry.Register(name, c)
}
