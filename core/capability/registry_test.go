package capability

import (
	"errors"
	"reflect"
	"testing"
)

type greeter interface {
	Greet() string
}

type english struct{}

func (english) Greet() string { return "hello" }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	replaced, err := r.Register("db", "first")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if replaced {
		t.Error("first registration reported replaced")
	}

	replaced, err = r.Register("db", "second")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !replaced {
		t.Error("second registration should report replaced")
	}

	p, ok := r.Plugin("db")
	if !ok || p != "second" {
		t.Errorf("Plugin(db) = %v, %v; last registration should win", p, ok)
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"", "   "} {
		if _, err := r.Register(name, 1); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Register(%q) = %v, want ErrEmptyName", name, err)
		}
	}
	if len(r.Names()) != 0 {
		t.Error("empty names should not be stored")
	}
}

func TestRegistry_NamesAndMissing(t *testing.T) {
	r := NewRegistry()
	r.Register("sqlite", 1)
	r.Register("cache", 2)

	if got := r.Names(); !reflect.DeepEqual(got, []string{"cache", "sqlite"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := r.Missing([]string{"sqlite", "s3", "redis"}); !reflect.DeepEqual(got, []string{"s3", "redis"}) {
		t.Errorf("Missing() = %v", got)
	}
	if r.Missing([]string{"cache"}) != nil {
		t.Error("Missing() should be nil when all are present")
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("greeter", english{})
	r.Register("number", 42)

	g, ok := Lookup[greeter](r, "greeter")
	if !ok || g.Greet() != "hello" {
		t.Errorf("Lookup[greeter] = %v, %v", g, ok)
	}
	if _, ok := Lookup[greeter](r, "number"); ok {
		t.Error("Lookup with wrong type should fail")
	}
	if _, ok := Lookup[greeter](r, "missing"); ok {
		t.Error("Lookup of missing name should fail")
	}
	if _, ok := Lookup[greeter](nil, "greeter"); ok {
		t.Error("Lookup on nil source should fail")
	}
}
