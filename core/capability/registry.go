// Package capability holds the plugin registry: named capability objects
// that are handed to every route handler.
package capability

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyName is returned when a plugin is registered without a name.
var ErrEmptyName = errors.New("plugin name must not be empty")

// Registry maps plugin names to capability objects. The registry never
// inspects the objects it stores. Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]any
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]any)}
}

// Register stores a capability under name. A later registration under the
// same name replaces the earlier one and reports replaced=true.
func (r *Registry) Register(name string, plugin any) (replaced bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.plugins[name]
	r.plugins[name] = plugin
	return replaced, nil
}

// Plugin returns the capability registered under name.
func (r *Registry) Plugin(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Plugin(name)
	return ok
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the names in want that are not registered.
func (r *Registry) Missing(want []string) []string {
	var missing []string
	for _, name := range want {
		if !r.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Source is anything that can look plugins up by name.
type Source interface {
	Plugin(name string) (any, bool)
}

// Lookup returns the plugin registered under name as a T.
// It reports false when the name is missing or holds a different type.
func Lookup[T any](src Source, name string) (T, bool) {
	var zero T
	if src == nil {
		return zero, false
	}
	p, ok := src.Plugin(name)
	if !ok {
		return zero, false
	}
	t, ok := p.(T)
	return t, ok
}
