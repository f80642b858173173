package schema

// Parameter describes one query or path parameter a route accepts.
type Parameter struct {
	// Type is the declared type. See the Type constants.
	Type TypeName `yaml:"type" toml:"type" json:"type"`

	// Description documents the parameter for route introspection.
	Description string `yaml:"description" toml:"description" json:"description"`

	// Values optionally closes the parameter over a set of literal values.
	// Membership is checked after coercion, element by element for list types.
	Values []any `yaml:"values,omitempty" toml:"values,omitempty" json:"values,omitempty"`
}

// Field documents one field of the records a route returns.
// Fields are descriptive only; output data is not checked against them.
type Field struct {
	Type        TypeName `yaml:"type" toml:"type" json:"type"`
	Description string   `yaml:"description" toml:"description" json:"description"`
}

// HasValues reports whether the parameter declares a closed value set.
func (p Parameter) HasValues() bool {
	return len(p.Values) > 0
}
