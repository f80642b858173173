package schema

import "strings"

// TypeName is a declared parameter or field type.
type TypeName string

const (
	TypeText        TypeName = "text"
	TypeTextList    TypeName = "text[]"
	TypeInteger     TypeName = "integer"
	TypeIntegerList TypeName = "integer[]"
	TypeBoolean     TypeName = "boolean"
)

// Kind is the primitive kind a coerced value is checked against.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"

	// KindObject is reported for coerced JSON objects, arrays and null.
	// No declared type maps to it.
	KindObject Kind = "object"
)

// listSuffix marks array cardinality on a type name.
const listSuffix = "[]"

var typeKinds = map[TypeName]Kind{
	TypeText:        KindString,
	TypeTextList:    KindString,
	TypeInteger:     KindNumber,
	TypeIntegerList: KindNumber,
	TypeBoolean:     KindBoolean,
}

// Types returns every recognized type name in table order.
func Types() []TypeName {
	return []TypeName{TypeText, TypeTextList, TypeInteger, TypeIntegerList, TypeBoolean}
}

// Valid reports whether t exists in the type table.
func (t TypeName) Valid() bool {
	_, ok := typeKinds[t]
	return ok
}

// Kind returns the primitive kind of t, or of each element for list types.
// Unknown types return an empty Kind.
func (t TypeName) Kind() Kind {
	return typeKinds[t]
}

// IsList reports whether t carries the [] suffix.
func (t TypeName) IsList() bool {
	return strings.HasSuffix(string(t), listSuffix)
}

// Elem returns the element type of a list type, or t itself.
func (t TypeName) Elem() TypeName {
	return TypeName(strings.TrimSuffix(string(t), listSuffix))
}

func (t TypeName) String() string {
	return string(t)
}
