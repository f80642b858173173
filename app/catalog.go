// Package app contains the built-in route handlers that file-declared
// routes bind to by name.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/larkin/core/capability"
	"github.com/artpar/larkin/core/schema"
)

// Built-in handler names.
const (
	HandlerStatic = "static"
	HandlerSQL    = "sql"
	HandlerEcho   = "echo"
)

// SQLPlugin is the plugin the sql handler queries.
const SQLPlugin = "sqlite"

var (
	ErrNoHandler      = errors.New("route has no handler")
	ErrUnknownHandler = errors.New("unknown handler")
	ErrHandlerConfig  = errors.New("invalid handler config")
)

// Querier runs a query with named parameters. adapters/sqlite implements it.
type Querier interface {
	Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Factory builds a handler from a route's declaration. It may read
// route.Config and add the plugins the handler needs to route.Plugins.
type Factory func(route *schema.Route) (schema.Handler, error)

// Catalog maps handler names to factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns a catalog holding the built-in handlers.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}
	c.Register(HandlerStatic, staticHandler)
	c.Register(HandlerSQL, sqlHandler)
	c.Register(HandlerEcho, echoHandler)
	return c
}

// Register adds or replaces a factory.
func (c *Catalog) Register(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Names returns the registered handler names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind sets route.Handler from route.HandlerName. A route that already has a
// handler is left unchanged.
func (c *Catalog) Bind(route *schema.Route) error {
	if route.Handler != nil {
		return nil
	}
	if route.HandlerName == "" {
		return fmt.Errorf("%s: %w", route.Path, ErrNoHandler)
	}

	c.mu.RLock()
	f, ok := c.factories[route.HandlerName]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w %q", route.Path, ErrUnknownHandler, route.HandlerName)
	}

	h, err := f(route)
	if err != nil {
		return fmt.Errorf("%s: handler %q: %w", route.Path, route.HandlerName, err)
	}
	route.Handler = h
	return nil
}

// BindAll binds every route, stopping at the first error.
func (c *Catalog) BindAll(routes []schema.Route) error {
	for i := range routes {
		if err := c.Bind(&routes[i]); err != nil {
			return err
		}
	}
	return nil
}

// staticHandler replies with config.data, a list of records.
func staticHandler(route *schema.Route) (schema.Handler, error) {
	raw, ok := route.Config["data"]
	if !ok {
		return nil, fmt.Errorf("%w: config.data is required", ErrHandlerConfig)
	}
	data, err := records(raw)
	if err != nil {
		return nil, err
	}

	return func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
		w.Reply(data)
	}, nil
}

// sqlHandler runs config.query against the sqlite plugin with the request
// parameters bound by name.
func sqlHandler(route *schema.Route) (schema.Handler, error) {
	query, _ := route.Config["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("%w: config.query is required", ErrHandlerConfig)
	}
	if !contains(route.Plugins, SQLPlugin) {
		route.Plugins = append(route.Plugins, SQLPlugin)
	}

	return func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
		db, ok := capability.Lookup[Querier](p, SQLPlugin)
		if !ok {
			next(fmt.Errorf("plugin %q is not a querier", SQLPlugin))
			return
		}
		rows, err := db.Query(r.Context(), query, r.Params)
		if err != nil {
			next(err)
			return
		}
		w.Reply(rows)
	}, nil
}

// echoHandler replies with a single record holding the coerced parameters.
func echoHandler(route *schema.Route) (schema.Handler, error) {
	return func(w schema.Responder, r *schema.Request, next schema.Next, p schema.Plugins) {
		record := make(map[string]any, len(r.Params))
		for k, v := range r.Params {
			record[k] = v
		}
		w.Reply([]map[string]any{record})
	}, nil
}

func records(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: config.data[%d] is not an object", ErrHandlerConfig, i)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: config.data must be a list of objects", ErrHandlerConfig)
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
