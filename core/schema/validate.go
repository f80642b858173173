package schema

import (
	"fmt"
	"net/http"
	"strings"
)

// SupportedMethods lists the HTTP verbs a route may declare.
var SupportedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// Validate checks a route declaration and returns the first problem found as
// a *DeclarationError. Checks run in a fixed order so the same declaration
// always reports the same error.
func Validate(r *Route) error {
	if r == nil {
		return &DeclarationError{Kind: ErrNilRoute, Message: "Route is nil"}
	}

	if r.Path == "" {
		return declErr(r, "", ErrMissingPath, "A path is required for the route. For example, /things")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return declErr(r, "", ErrBadPathPrefix, "The path for a route must begin with a forward slash. For example, /things")
	}

	if strings.TrimSpace(r.Description) == "" {
		return declErr(r, "", ErrMissingDescription, fmt.Sprintf("The route %q is missing a description", r.Path))
	}

	if len(r.Parameters) == 0 {
		return declErr(r, "", ErrMissingParameters, fmt.Sprintf("The route %q must have parameters", r.Path))
	}
	for _, name := range r.ParameterNames() {
		p := r.Parameters[name]
		if p.Type == "" {
			return declErr(r, name, ErrParameterType, fmt.Sprintf("The parameter %q is missing a type", name))
		}
		if !p.Type.Valid() {
			return declErr(r, name, ErrParameterType, fmt.Sprintf("The type %q of the parameter %q is invalid", p.Type, name))
		}
	}

	if len(r.Fields) == 0 {
		return declErr(r, "", ErrMissingFields, fmt.Sprintf("The route %s must have a fields value", r.Path))
	}
	for _, name := range r.FieldNames() {
		f := r.Fields[name]
		if f.Type == "" {
			return declErr(r, name, ErrFieldType, fmt.Sprintf("The field %q is missing a type", name))
		}
		if !f.Type.Valid() {
			return declErr(r, name, ErrFieldType, fmt.Sprintf("The field %q does not have a valid type", name))
		}
		if strings.TrimSpace(f.Description) == "" {
			return declErr(r, name, ErrFieldDescription, fmt.Sprintf("The field %q is missing a description", name))
		}
	}

	if r.Handler == nil {
		return declErr(r, r.HandlerName, ErrMissingHandler, fmt.Sprintf("The route %s must have a request handler", r.Path))
	}

	if len(r.Examples) == 0 {
		return declErr(r, "", ErrMissingExamples, fmt.Sprintf("The route %s must have at least one example", r.Path))
	}

	for _, m := range r.Methods {
		if !isSupportedMethod(m) {
			return declErr(r, m, ErrUnsupportedMethod, fmt.Sprintf("The method %q of the route %s is not supported. Use one of %s",
				m, r.Path, strings.Join(SupportedMethods, ", ")))
		}
	}

	pattern, err := ParsePattern(r.Path)
	if err != nil {
		return declErr(r, "", ErrBadPathPattern, fmt.Sprintf("The path of the route %s is not a valid pattern: %v", r.Path, err))
	}
	for _, name := range pattern.Params() {
		if _, ok := r.Parameters[name]; !ok {
			return declErr(r, name, ErrUndeclaredParameter,
				fmt.Sprintf("The route %s uses the path parameter %q but does not declare it", r.Path, name))
		}
	}
	for _, name := range r.RequiredParameters {
		if _, ok := r.Parameters[name]; !ok {
			return declErr(r, name, ErrUndeclaredParameter,
				fmt.Sprintf("The route %s requires the parameter %q but does not declare it", r.Path, name))
		}
	}
	for _, name := range r.RequiresOneOf {
		if _, ok := r.Parameters[name]; !ok {
			return declErr(r, name, ErrUndeclaredParameter,
				fmt.Sprintf("The route %s lists %q in requiresOneOf but does not declare it", r.Path, name))
		}
	}

	return nil
}

func declErr(r *Route, name string, kind error, msg string) *DeclarationError {
	return &DeclarationError{Path: r.Path, Name: name, Kind: kind, Message: msg}
}

func isSupportedMethod(m string) bool {
	for _, s := range SupportedMethods {
		if strings.EqualFold(m, s) {
			return true
		}
	}
	return false
}
