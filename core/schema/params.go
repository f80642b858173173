package schema

import "fmt"

// Params holds coerced parameter values keyed by name. Scalar types hold a
// single value; list types hold a []any.
type Params map[string]any

// Has reports whether the parameter was supplied.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// String returns a scalar parameter as a string.
func (p Params) String(name string) (string, bool) {
	v, ok := p[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Strings returns a list parameter as strings. A scalar is returned as a
// one-element list.
func (p Params) Strings(name string) []string {
	v, ok := p[name]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(e))
		}
	}
	return out
}

// Int returns a numeric parameter as an int64.
func (p Params) Int(name string) (int64, bool) {
	return asInt(p[name])
}

// Ints returns a numeric list parameter as int64 values. Elements that are
// not numbers are skipped.
func (p Params) Ints(name string) []int64 {
	v, ok := p[name]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	out := make([]int64, 0, len(list))
	for _, e := range list {
		if n, ok := asInt(e); ok {
			out = append(out, n)
		}
	}
	return out
}

// Bool returns a boolean parameter.
func (p Params) Bool(name string) (bool, bool) {
	b, ok := p[name].(bool)
	return b, ok
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
