package schema

import "errors"

// Declaration error kinds. A *DeclarationError unwraps to one of these.
var (
	ErrNilRoute            = errors.New("route is nil")
	ErrMissingPath         = errors.New("missing path")
	ErrBadPathPrefix       = errors.New("path must begin with a forward slash")
	ErrMissingDescription  = errors.New("missing description")
	ErrMissingParameters   = errors.New("missing parameters")
	ErrParameterType       = errors.New("unrecognized parameter type")
	ErrMissingFields       = errors.New("missing fields")
	ErrFieldType           = errors.New("unrecognized field type")
	ErrFieldDescription    = errors.New("missing field description")
	ErrMissingHandler      = errors.New("missing handler")
	ErrMissingExamples     = errors.New("missing examples")
	ErrUnsupportedMethod   = errors.New("unsupported method")
	ErrBadPathPattern      = errors.New("invalid path pattern")
	ErrUndeclaredParameter = errors.New("undeclared parameter")
)

// DeclarationError reports why a route declaration was rejected.
type DeclarationError struct {
	// Path is the route path, when the declaration has one.
	Path string

	// Name is the offending parameter, field or method, if any.
	Name string

	Kind    error
	Message string
}

func (e *DeclarationError) Error() string {
	return e.Message
}

func (e *DeclarationError) Unwrap() error {
	return e.Kind
}
