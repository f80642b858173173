package coerce

import (
	"reflect"
	"testing"

	"github.com/artpar/larkin/core/schema"
)

func TestValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.5", 3.5},
		{"1e3", 1000.0},
		{"true", true},
		{"false", false},
		{`"x"`, "x"},
		{"abc", "abc"},
		{"", ""},
		{" 3 ", int64(3)},
		{"1 2", "1 2"},
		{"true,false", "true,false"},
		{"null", nil},
		{"[1,2]", []any{int64(1), int64(2)}},
		{`{"a":1}`, map[string]any{"a": int64(1)}},
		{"NaN", "NaN"},
		{"01", "01"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Value(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Value(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForType(t *testing.T) {
	tests := []struct {
		raw  string
		typ  schema.TypeName
		want any
	}{
		{"3,4,5", schema.TypeIntegerList, []any{int64(3), int64(4), int64(5)}},
		{"abc", schema.TypeText, "abc"},
		{"bar,baz", schema.TypeTextList, []any{"bar", "baz"}},
		{"bar", schema.TypeTextList, []any{"bar"}},
		{"a,,b", schema.TypeTextList, []any{"a", "", "b"}},
		{"true", schema.TypeBoolean, true},
		{"3,x", schema.TypeIntegerList, []any{int64(3), "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw+"/"+string(tt.typ), func(t *testing.T) {
			got := ForType(tt.raw, tt.typ)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ForType(%q, %q) = %#v, want %#v", tt.raw, tt.typ, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		v    any
		want schema.Kind
	}{
		{"x", schema.KindString},
		{int64(1), schema.KindNumber},
		{1.5, schema.KindNumber},
		{true, schema.KindBoolean},
		{nil, schema.KindObject},
		{[]any{}, schema.KindObject},
		{map[string]any{}, schema.KindObject},
	}

	for _, tt := range tests {
		if got := KindOf(tt.v); got != tt.want {
			t.Errorf("KindOf(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		declared any
		coerced  any
		want     bool
	}{
		{"json", "json", true},
		{"json", "csv", false},
		{3, int64(3), true},
		{3, 3.0, true},
		{3, "3", false},
		{true, true, true},
		{"true", true, false},
		{nil, nil, true},
		{[]any{1}, []any{int64(1)}, true},
	}

	for _, tt := range tests {
		if got := Equal(tt.declared, tt.coerced); got != tt.want {
			t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.declared, tt.coerced, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	set := []any{"json", "csv"}
	if !Contains(set, "csv") {
		t.Error("Contains(csv) = false")
	}
	if Contains(set, "xml") {
		t.Error("Contains(xml) = true")
	}
}
