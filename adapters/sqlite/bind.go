package sqlite

import "strings"

// Bind rewrites :name placeholders in query to positional "?" markers and
// returns the matching arguments.
//
// A []any value expands to one marker per element, so "IN (:ids)" works
// with list parameters; an empty list binds a single NULL. A name missing
// from params binds NULL. Placeholders inside quoted strings, quoted
// identifiers and "::" are left alone.
func Bind(query string, params map[string]any) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.Grow(len(query))

	for i := 0; i < len(query); i++ {
		c := query[i]

		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closingQuote(query, i)
			b.WriteString(query[i:end])
			i = end - 1

		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i++

		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			args = appendArg(&b, args, params[name])
			i = j - 1

		default:
			b.WriteByte(c)
		}
	}

	return b.String(), args
}

func appendArg(b *strings.Builder, args []any, v any) []any {
	list, ok := v.([]any)
	if !ok {
		b.WriteByte('?')
		return append(args, v)
	}
	if len(list) == 0 {
		b.WriteByte('?')
		return append(args, nil)
	}
	for i, e := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
		args = append(args, e)
	}
	return args
}

// closingQuote returns the index just past the quote that closes the one at
// start. A doubled quote is an escape. An unterminated quote runs to the end.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
