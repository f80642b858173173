package schema

import (
	"fmt"
	"strings"
)

// Segment is one "/"-separated piece of a route pattern.
type Segment struct {
	// Literal is set for static segments.
	Literal string

	// Param is set for named segments.
	Param string

	// Optional marks a named segment declared with a trailing "?".
	Optional bool
}

// Pattern is a parsed route path.
type Pattern struct {
	Raw      string
	Segments []Segment
}

// ParsePattern parses a route path such as "/units/:id/:format?".
// The root path "/" parses to a pattern with no segments.
func ParsePattern(path string) (Pattern, error) {
	p := Pattern{Raw: path}
	if !strings.HasPrefix(path, "/") {
		return p, fmt.Errorf("pattern %q must begin with /", path)
	}
	if path == "/" {
		return p, nil
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(path[1:], "/") {
		if part == "" {
			return p, fmt.Errorf("pattern %q has an empty segment", path)
		}

		if !strings.HasPrefix(part, ":") {
			if strings.ContainsAny(part, ":{}*?") {
				return p, fmt.Errorf("pattern %q: segment %q contains a reserved character", path, part)
			}
			p.Segments = append(p.Segments, Segment{Literal: part})
			continue
		}

		name := strings.TrimPrefix(part, ":")
		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		if !isIdentifier(name) {
			return p, fmt.Errorf("pattern %q: %q is not a valid parameter name", path, name)
		}
		if seen[name] {
			return p, fmt.Errorf("pattern %q: parameter %q appears twice", path, name)
		}
		seen[name] = true
		p.Segments = append(p.Segments, Segment{Param: name, Optional: optional})
	}

	return p, nil
}

// Params returns the names of the named segments in order.
func (p Pattern) Params() []string {
	var names []string
	for _, s := range p.Segments {
		if s.Param != "" {
			names = append(names, s.Param)
		}
	}
	return names
}

// Variants expands optional segments into every concrete segment list,
// longest first. Variants with the same shape are reported once; the first
// one binds its names, so "/a/:b?/:c?" matches "/a/x" with b=x.
func (p Pattern) Variants() [][]Segment {
	variants := [][]Segment{{}}
	for _, s := range p.Segments {
		var next [][]Segment
		for _, v := range variants {
			with := append(append([]Segment{}, v...), Segment{Literal: s.Literal, Param: s.Param})
			next = append(next, with)
			if s.Optional {
				next = append(next, v)
			}
		}
		variants = next
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		shape := render(v, "{", "}")
		for _, s := range v {
			if s.Param != "" {
				shape = strings.Replace(shape, "{"+s.Param+"}", "*", 1)
			}
		}
		if !seen[shape] {
			seen[shape] = true
			out = append(out, v)
		}
	}
	return out
}

// ChiPatterns renders every variant in chi's "{name}" syntax.
func (p Pattern) ChiPatterns() []string {
	var out []string
	for _, v := range p.Variants() {
		out = append(out, render(v, "{", "}"))
	}
	return out
}

// OpenAPIPath renders the full pattern with every named segment as "{name}".
func (p Pattern) OpenAPIPath() string {
	return render(p.Segments, "{", "}")
}

func render(segments []Segment, open, close string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		if s.Param != "" {
			b.WriteString(open + s.Param + close)
		} else {
			b.WriteString(s.Literal)
		}
	}
	return b.String()
}

// isIdentifier checks if a string is a valid parameter identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
