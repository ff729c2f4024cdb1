package backend

import (
	"fmt"
	"log"
	"sync"
)

// Priority constants for backend registration. Higher priority overrides
// lower priority registrations under the same name, letting a
// compositor-specific or private implementation replace the default one
// through import ordering alone.
const (
	PriorityDefault  = 0
	PriorityOverride = 100
)

// Info is the metadata attached to a registered backend factory.
type Info struct {
	// Name is the backend kind this factory builds: "socket" or "gamma".
	Name string

	// Description is a human-readable summary, logged on registration.
	Description string

	// Priority determines which factory wins when more than one registers
	// under the same Name. Higher priority wins; ties favor the later
	// registration.
	Priority int

	Factory Factory
}

// Registry holds one factory per backend name, resolved by priority.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Info
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Info)}
}

// Register adds a factory to the registry, applying priority override rules.
func (r *Registry) Register(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info.Name == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	if info.Factory == nil {
		return fmt.Errorf("backend %s: factory cannot be nil", info.Name)
	}

	existing, exists := r.backends[info.Name]
	if exists && info.Priority < existing.Priority {
		log.Printf("backend %q registration skipped (priority %d < existing %d)", info.Name, info.Priority, existing.Priority)
		return nil
	}

	r.backends[info.Name] = info
	log.Printf("backend %q registered (priority %d): %s", info.Name, info.Priority, info.Description)
	return nil
}

// Get returns the Info registered under name, or nil if none.
func (r *Registry) Get(name string) *Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.backends[name]
	if !ok {
		return nil
	}
	return &info
}

// Names returns all registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// Create resolves name's factory and constructs a Backend with ctx.
func (r *Registry) Create(name string, ctx *Context) (Backend, error) {
	info := r.Get(name)
	if info == nil {
		return nil, fmt.Errorf("no backend registered for %q", name)
	}
	return info.Factory(ctx)
}

// Clear removes all registrations. Useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = make(map[string]Info)
}

// Global is the process-wide registry backend packages register into from
// their init() functions.
var Global = NewRegistry()

// Register adds a factory to the global registry.
func Register(info Info) error { return Global.Register(info) }

// Create constructs a Backend by name from the global registry.
func Create(name string, ctx *Context) (Backend, error) { return Global.Create(name, ctx) }

// Names returns all backend names registered globally.
func Names() []string { return Global.Names() }
