// Package components holds the named views the application shell can mount.
package components

import (
	"context"
	"net/http"
	"sync"
)

// LoadFunc builds the template data for one render of a component.
type LoadFunc func(ctx context.Context, r *http.Request) (any, error)

// Component is a named view rendered by a template.
type Component struct {
	Name     string
	Title    string
	Template string
	Load     LoadFunc
}

// Registry maps component names to components. Names are registered once;
// later registrations under the same name are ignored.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Component
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Component)}
}

// Register adds c and reports whether it was added. A second registration of
// the same name leaves the first in place and returns false.
func (r *Registry) Register(c Component) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Name == "" {
		return false
	}
	if _, exists := r.byName[c.Name]; exists {
		return false
	}
	r.byName[c.Name] = c
	r.order = append(r.order, c.Name)
	return true
}

func (r *Registry) Lookup(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Names returns component names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Component, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byName[name])
	}
	return all
}
