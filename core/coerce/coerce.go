// Package coerce turns raw parameter strings into typed values.
//
// A raw value is parsed as a JSON literal. When that fails the raw string
// is kept unchanged, so "42" becomes a number, "true" a boolean, "\"x\""
// the string x, and "abc" stays "abc". No locale-aware or partial numeric
// parsing is attempted.
package coerce

import (
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/artpar/larkin/core/schema"
)

// Value coerces a single raw string.
//
// Numbers become int64 when they are integral and fit, float64 otherwise.
// JSON objects and arrays decode to map[string]any and []any with the same
// number handling; null decodes to nil.
func Value(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	// "1 2" and "true,false" are not single literals.
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return raw
	}
	return normalize(v)
}

// ForType coerces raw according to a declared type. List types split on
// "," and coerce each element, returning []any. Scalar types coerce the
// whole string once.
func ForType(raw string, t schema.TypeName) any {
	if !t.IsList() {
		return Value(raw)
	}
	parts := Split(raw)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = Value(p)
	}
	return out
}

// Split splits a list value on ",". Empty elements are kept.
func Split(raw string) []string {
	return strings.Split(raw, ",")
}

// KindOf reports the primitive kind of a coerced value.
func KindOf(v any) schema.Kind {
	switch v.(type) {
	case string:
		return schema.KindString
	case bool:
		return schema.KindBoolean
	case int64, float64, int, int32, float32, uint, uint64:
		return schema.KindNumber
	default:
		return schema.KindObject
	}
}

// Equal reports whether a coerced value matches a declared literal.
// Numbers compare by value regardless of their Go type, so a declared 3
// (int) matches a coerced int64(3).
func Equal(declared, coerced any) bool {
	if a, ok := toFloat(declared); ok {
		b, ok := toFloat(coerced)
		return ok && a == b
	}
	switch d := declared.(type) {
	case string, bool, nil:
		return d == coerced
	}
	return reflect.DeepEqual(normalize(declared), coerced)
}

// Contains reports whether v equals any member of set.
func Contains(set []any, v any) bool {
	for _, s := range set {
		if Equal(s, v) {
			return true
		}
	}
	return false
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		return number(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case int:
		return int64(t)
	default:
		return v
	}
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	// Out of range literals parse to ±Inf, which is still a number.
	f, _ := strconv.ParseFloat(n.String(), 64)
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
