package registry

import (
	"regexp"
	"strings"

	"github.com/artpar/larkin/core/schema"
)

// matcher resolves concrete request paths to declared patterns.
type matcher struct {
	path       string
	exact      string
	regex      *regexp.Regexp
	paramNames []string
	literals   int
}

// compileMatcher converts a route pattern to a regex with one named
// capture group per path parameter. Optional segments become optional
// groups. Static patterns match exactly.
func compileMatcher(p schema.Pattern) (matcher, error) {
	m := matcher{path: p.Raw}

	if len(p.Params()) == 0 {
		m.exact = p.Raw
		m.literals = len(p.Segments)
		return m, nil
	}

	var b strings.Builder
	b.WriteString("^")
	for _, s := range p.Segments {
		switch {
		case s.Literal != "":
			m.literals++
			b.WriteString("/" + regexp.QuoteMeta(s.Literal))
		case s.Optional:
			b.WriteString("(?:/(?P<" + s.Param + ">[^/]+))?")
			m.paramNames = append(m.paramNames, s.Param)
		default:
			b.WriteString("/(?P<" + s.Param + ">[^/]+)")
			m.paramNames = append(m.paramNames, s.Param)
		}
	}
	b.WriteString("/?$")

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return m, err
	}
	m.regex = regex
	return m, nil
}

// match returns the extracted path parameters, or nil if path does not
// match. Optional parameters that were not supplied are omitted.
func (m matcher) match(path string) map[string]string {
	if m.regex == nil {
		if path == m.exact || (m.exact != "/" && path == m.exact+"/") {
			return map[string]string{}
		}
		return nil
	}

	sub := m.regex.FindStringSubmatch(path)
	if sub == nil {
		return nil
	}

	params := make(map[string]string, len(m.paramNames))
	for i, name := range m.regex.SubexpNames() {
		if name != "" && sub[i] != "" {
			params[name] = sub[i]
		}
	}
	return params
}
