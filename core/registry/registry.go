// Package registry holds the registered route declarations. It is owned by
// the host application, populated during startup and read while serving.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/larkin/core/capability"
	"github.com/artpar/larkin/core/schema"
)

var (
	// ErrDuplicateRoute is returned when a path is registered twice and
	// replacement is not allowed.
	ErrDuplicateRoute = errors.New("route already registered")

	// ErrMissingPlugin is returned when a route expects a plugin that is
	// not registered.
	ErrMissingPlugin = errors.New("missing plugin")

	// ErrReservedPath is returned for paths the engine serves itself.
	ErrReservedPath = errors.New("reserved path")

	// ErrRouteNotFound is returned by Describe for unknown paths.
	ErrRouteNotFound = errors.New("route not found")
)

// Registry manages registered route declarations keyed by path.
// Thread-safe for concurrent access.
type Registry struct {
	mu sync.RWMutex

	// routes by declared path
	routes map[string]*schema.Route

	// registration order
	order []string

	matchers map[string]matcher

	allowReplace bool
	plugins      *capability.Registry
}

// Option configures a Registry.
type Option func(*Registry)

// WithAllowReplace makes Register replace an existing declaration instead
// of rejecting it.
func WithAllowReplace(allow bool) Option {
	return func(r *Registry) {
		r.allowReplace = allow
	}
}

// WithPlugins makes Register check each route's declared plugins against
// the given plugin registry.
func WithPlugins(p *capability.Registry) Option {
	return func(r *Registry) {
		r.plugins = p
	}
}

// New creates a new registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		routes:   make(map[string]*schema.Route),
		matchers: make(map[string]matcher),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates a declaration and stores a copy of it.
// A rejected declaration leaves the registry unchanged.
func (r *Registry) Register(route *schema.Route) error {
	_, err := r.register(route, r.allowReplace)
	return err
}

// Replace registers a declaration, replacing any existing one under the
// same path. It reports whether a declaration was replaced.
func (r *Registry) Replace(route *schema.Route) (bool, error) {
	return r.register(route, true)
}

func (r *Registry) register(route *schema.Route, replace bool) (bool, error) {
	if err := schema.Validate(route); err != nil {
		return false, err
	}
	if IsReserved(route.Path) {
		return false, fmt.Errorf("%w: %s is served by the engine", ErrReservedPath, route.Path)
	}
	if r.plugins != nil {
		if missing := r.plugins.Missing(route.Plugins); len(missing) > 0 {
			return false, fmt.Errorf("%w: route %s expects %s", ErrMissingPlugin, route.Path, strings.Join(missing, ", "))
		}
	}

	pattern, err := schema.ParsePattern(route.Path)
	if err != nil {
		return false, err
	}
	m, err := compileMatcher(pattern)
	if err != nil {
		return false, fmt.Errorf("compile %s: %w", route.Path, err)
	}

	stored := route.Clone()
	stored.Methods = stored.MethodList()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.routes[route.Path]
	if exists && !replace {
		return false, fmt.Errorf("%w: %s", ErrDuplicateRoute, route.Path)
	}

	r.routes[route.Path] = stored
	r.matchers[route.Path] = m
	if !exists {
		r.order = append(r.order, route.Path)
	}
	return exists, nil
}

// Get returns a copy of the declaration registered under path.
func (r *Registry) Get(path string) (*schema.Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[path]
	if !ok {
		return nil, false
	}
	return route.Clone(), true
}

// Lookup returns the stored declaration registered under path. The
// returned route is shared and must not be modified.
func (r *Registry) Lookup(path string) (*schema.Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[path]
	return route, ok
}

// Resolve finds the declaration whose pattern matches a concrete request
// path and returns the extracted path parameters. Patterns with more
// literal segments win; ties go to the earlier registration.
func (r *Registry) Resolve(path string) (*schema.Route, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if route, ok := r.routes[path]; ok && r.matchers[path].regex == nil {
		return route, map[string]string{}, true
	}

	var (
		best       *schema.Route
		bestParams map[string]string
		bestScore  = -1
	)
	for _, p := range r.order {
		m := r.matchers[p]
		params := m.match(path)
		if params == nil {
			continue
		}
		if m.literals > bestScore {
			best, bestParams, bestScore = r.routes[p], params, m.literals
		}
	}
	return best, bestParams, best != nil
}

// List returns the stored declarations in registration order.
// The returned routes are shared and must not be modified.
func (r *Registry) List() []*schema.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]*schema.Route, 0, len(r.order))
	for _, p := range r.order {
		routes = append(routes, r.routes[p])
	}
	return routes
}

// Routes returns path -> description for every registered route.
func (r *Registry) Routes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.routes))
	for path, route := range r.routes {
		out[path] = route.Description
	}
	return out
}

// Paths returns the registered paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Describe returns the documentation view of the route under path.
func (r *Registry) Describe(path string) (schema.Description, error) {
	route, ok := r.Lookup(path)
	if !ok {
		return schema.Description{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	return route.Describe(), nil
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// IsReserved reports whether path is served by the engine itself: the API
// root and anything under "/_".
func IsReserved(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/_")
}
