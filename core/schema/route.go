package schema

import (
	"net/http"
	"sort"
	"strings"
)

// Route is the declaration of one API endpoint.
// A Route is copied on registration and must not change afterwards.
type Route struct {
	// Path is the route pattern. It begins with "/" and may contain named
	// segments (":id") and optional segments (":id?").
	Path string `yaml:"path" toml:"path" json:"path"`

	// DisplayPath is an optional documentation form of Path.
	DisplayPath string `yaml:"displayPath,omitempty" toml:"displayPath,omitempty" json:"displayPath,omitempty"`

	// Methods lists the HTTP verbs the route answers. Defaults to GET.
	Methods []string `yaml:"methods,omitempty" toml:"methods,omitempty" json:"methods,omitempty"`

	Description string `yaml:"description" toml:"description" json:"description"`

	Parameters map[string]Parameter `yaml:"parameters" toml:"parameters" json:"parameters"`

	// RequiredParameters must all be present on a request.
	RequiredParameters []string `yaml:"requiredParameters,omitempty" toml:"requiredParameters,omitempty" json:"requiredParameters,omitempty"`

	// RequiresOneOf must have at least one member present on a request.
	RequiresOneOf []string `yaml:"requiresOneOf,omitempty" toml:"requiresOneOf,omitempty" json:"requiresOneOf,omitempty"`

	Fields map[string]Field `yaml:"fields" toml:"fields" json:"fields"`

	Examples []string `yaml:"examples" toml:"examples" json:"examples"`

	// Plugins names the capabilities the handler expects to find in the
	// plugin registry.
	Plugins []string `yaml:"plugins,omitempty" toml:"plugins,omitempty" json:"plugins,omitempty"`

	// HandlerName binds a file-declared route to a built-in handler.
	HandlerName string `yaml:"handler,omitempty" toml:"handler,omitempty" json:"handler,omitempty"`

	// Config is handler-specific configuration for built-in handlers.
	Config map[string]any `yaml:"config,omitempty" toml:"config,omitempty" json:"config,omitempty"`

	// Handler runs after the request has been validated.
	Handler Handler `yaml:"-" toml:"-" json:"-"`
}

// Handler is the route's own logic. It runs only for requests that passed
// validation and receives the coerced parameters on r.Params.
type Handler func(w Responder, r *Request, next Next, plugins Plugins)

// Responder is the response side handed to a handler. Reply renders data in
// the format the caller asked for; Error writes the error envelope.
type Responder interface {
	http.ResponseWriter
	Reply(data []map[string]any)
	Error(message string, code int)
}

// Request is a validated request.
type Request struct {
	*http.Request

	// Route is the matched declaration.
	Route *Route

	// Params holds the coerced query and path parameters.
	Params Params
}

// Next is the continuation. Passing a non-nil error renders an internal
// error; passing nil falls through to "route not found".
type Next func(err error)

// Plugins is the read-only view of the plugin registry a handler receives.
type Plugins interface {
	Plugin(name string) (any, bool)
}

// Description is the documentation view of a route returned by introspection.
type Description struct {
	Route              string               `json:"route"`
	Methods            []string             `json:"methods"`
	Description        string               `json:"description"`
	RequiredParameters []string             `json:"requiredParameters"`
	RequiresOneOf      []string             `json:"requiresOneOf"`
	Parameters         map[string]Parameter `json:"parameters"`
	Fields             map[string]Field     `json:"fields"`
	Examples           []string             `json:"examples"`
}

// Describe returns the documentation view of the route.
func (r *Route) Describe() Description {
	c := r.Clone()
	return Description{
		Route:              c.Path,
		Methods:            c.MethodList(),
		Description:        c.Description,
		RequiredParameters: nonNil(c.RequiredParameters),
		RequiresOneOf:      nonNil(c.RequiresOneOf),
		Parameters:         c.Parameters,
		Fields:             c.Fields,
		Examples:           nonNil(c.Examples),
	}
}

// ParameterNames returns the declared parameter names, sorted.
func (r *Route) ParameterNames() []string {
	names := make([]string, 0, len(r.Parameters))
	for name := range r.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldNames returns the declared field names, sorted.
func (r *Route) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the declaration. The handler is shared.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.Methods = cloneStrings(r.Methods)
	c.RequiredParameters = cloneStrings(r.RequiredParameters)
	c.RequiresOneOf = cloneStrings(r.RequiresOneOf)
	c.Examples = cloneStrings(r.Examples)
	c.Plugins = cloneStrings(r.Plugins)

	if r.Parameters != nil {
		c.Parameters = make(map[string]Parameter, len(r.Parameters))
		for name, p := range r.Parameters {
			if p.Values != nil {
				values := make([]any, len(p.Values))
				for i, v := range p.Values {
					values[i] = cloneValue(v)
				}
				p.Values = values
			}
			c.Parameters[name] = p
		}
	}
	if r.Fields != nil {
		c.Fields = make(map[string]Field, len(r.Fields))
		for name, f := range r.Fields {
			c.Fields[name] = f
		}
	}
	if r.Config != nil {
		c.Config = cloneValue(r.Config).(map[string]any)
	}
	return &c
}

// MethodList returns the declared methods upper-cased and de-duplicated,
// or GET when none are declared.
func (r *Route) MethodList() []string {
	if len(r.Methods) == 0 {
		return []string{http.MethodGet}
	}
	seen := make(map[string]bool, len(r.Methods))
	out := make([]string, 0, len(r.Methods))
	for _, m := range r.Methods {
		m = strings.ToUpper(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
