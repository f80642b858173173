// Package formatter renders validated route output in the format the
// caller asked for and writes the uniform error envelope.
package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// DefaultFormat is used when a request names no format or an unknown one.
const DefaultFormat = "json"

// ErrConversion marks a failure inside a format conversion. Callers report
// it as a generic internal error.
var ErrConversion = errors.New("format conversion failed")

// Info is the API metadata carried by every JSON envelope.
type Info struct {
	Version     int
	License     string
	Description string
}

// DefaultInfo returns version 1, license "Unknown" and the default root
// description.
func DefaultInfo() Info {
	return Info{
		Version:     1,
		License:     "Unknown",
		Description: "This is the API root",
	}
}

// Formatter converts a list of records to one output format.
type Formatter interface {
	// Name returns the format name used in the format parameter.
	Name() string

	// ContentType returns the response Content-Type.
	ContentType() string

	// Format writes data to w. It may block until a conversion completes
	// or ctx is done.
	Format(ctx context.Context, w io.Writer, info Info, data []map[string]any) error
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
