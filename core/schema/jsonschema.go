package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema returns the JSON Schema of the declaration file format.
// Fields without omitempty are reported as required.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(&Route{})
	s.Title = "larkin route declaration"

	return json.MarshalIndent(s, "", "  ")
}
