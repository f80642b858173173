package schema

import (
	"errors"
	"testing"
)

func noop(w Responder, r *Request, next Next, plugins Plugins) {}

func validRoute() *Route {
	return &Route{
		Path:        "/foo",
		Description: "An example route",
		Methods:     []string{"GET"},
		Parameters: map[string]Parameter{
			"thing":  {Type: TypeTextList, Description: "a thing"},
			"format": {Type: TypeText, Description: "desired output format", Values: []any{"json", "csv"}},
		},
		RequiresOneOf: []string{"thing"},
		Fields: map[string]Field{
			"message": {Type: TypeText, Description: "A message"},
		},
		Examples: []string{"/api/foo?thing=bar,baz"},
		Handler:  noop,
	}
}

func TestValidateAcceptsValidRoute(t *testing.T) {
	if err := Validate(validRoute()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Route)
		kind    error
		message string
	}{
		{
			name:    "missing path",
			mutate:  func(r *Route) { r.Path = "" },
			kind:    ErrMissingPath,
			message: "A path is required for the route. For example, /things",
		},
		{
			name:    "path without slash",
			mutate:  func(r *Route) { r.Path = "foo" },
			kind:    ErrBadPathPrefix,
			message: "The path for a route must begin with a forward slash. For example, /things",
		},
		{
			name:    "missing description",
			mutate:  func(r *Route) { r.Description = "" },
			kind:    ErrMissingDescription,
			message: `The route "/foo" is missing a description`,
		},
		{
			name:   "missing parameters",
			mutate: func(r *Route) { r.Parameters = nil },
			kind:   ErrMissingParameters,
		},
		{
			name: "parameter without type",
			mutate: func(r *Route) {
				r.Parameters["thing"] = Parameter{Description: "a thing"}
			},
			kind:    ErrParameterType,
			message: `The parameter "thing" is missing a type`,
		},
		{
			name: "parameter with unknown type",
			mutate: func(r *Route) {
				r.Parameters["thing"] = Parameter{Type: "float", Description: "a thing"}
			},
			kind: ErrParameterType,
		},
		{
			name:    "missing fields",
			mutate:  func(r *Route) { r.Fields = map[string]Field{} },
			kind:    ErrMissingFields,
			message: "The route /foo must have a fields value",
		},
		{
			name: "field with unknown type",
			mutate: func(r *Route) {
				r.Fields["message"] = Field{Type: "blob", Description: "A message"}
			},
			kind:    ErrFieldType,
			message: `The field "message" does not have a valid type`,
		},
		{
			name: "field without description",
			mutate: func(r *Route) {
				r.Fields["message"] = Field{Type: TypeText}
			},
			kind: ErrFieldDescription,
		},
		{
			name:    "missing handler",
			mutate:  func(r *Route) { r.Handler = nil },
			kind:    ErrMissingHandler,
			message: "The route /foo must have a request handler",
		},
		{
			name:    "missing examples",
			mutate:  func(r *Route) { r.Examples = nil },
			kind:    ErrMissingExamples,
			message: "The route /foo must have at least one example",
		},
		{
			name:   "unsupported method",
			mutate: func(r *Route) { r.Methods = []string{"PATCH"} },
			kind:   ErrUnsupportedMethod,
		},
		{
			name:   "bad pattern",
			mutate: func(r *Route) { r.Path = "/foo//bar" },
			kind:   ErrBadPathPattern,
		},
		{
			name:   "undeclared path parameter",
			mutate: func(r *Route) { r.Path = "/foo/:id" },
			kind:   ErrUndeclaredParameter,
		},
		{
			name:   "undeclared required parameter",
			mutate: func(r *Route) { r.RequiredParameters = []string{"missing"} },
			kind:   ErrUndeclaredParameter,
		},
		{
			name:   "undeclared one-of parameter",
			mutate: func(r *Route) { r.RequiresOneOf = []string{"missing"} },
			kind:   ErrUndeclaredParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRoute()
			tt.mutate(r)

			err := Validate(r)
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error kind = %v, want %v", err, tt.kind)
			}
			var de *DeclarationError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not a *DeclarationError", err)
			}
			if tt.message != "" && de.Message != tt.message {
				t.Errorf("message = %q, want %q", de.Message, tt.message)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrNilRoute) {
		t.Errorf("Validate(nil) = %v, want ErrNilRoute", err)
	}
}

func TestValidateMethodsCaseInsensitive(t *testing.T) {
	r := validRoute()
	r.Methods = []string{"get", "Post"}
	if err := Validate(r); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
