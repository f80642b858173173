/*
Package schema defines route declarations: the single configuration object
that describes one API endpoint.

A declaration names the route's path, the HTTP methods it answers, the query
and path parameters it accepts, the parameter presence policy, the fields of
the records it returns, and a handful of example requests.

# Declaration Files

Routes served by the larkin binary are written as YAML, TOML or JSON files
and bound to a built-in handler by name:

	path: /foo
	description: An example route
	methods: [GET]
	parameters:
	  thing:  { type: "text[]", description: a thing }
	  format: { type: text, description: desired output format, values: [json, csv] }
	requiresOneOf: [thing]
	fields:
	  message: { type: text, description: A message }
	examples:
	  - /api/foo?thing=bar,baz
	handler: static

Routes embedded in a Go program set Handler directly instead.

# Types

Parameter and field types are drawn from a fixed table:

  - text:      string
  - text[]:    comma-delimited list of strings
  - integer:   number
  - integer[]: comma-delimited list of numbers
  - boolean:   boolean

# Validation

Validate checks a declaration before it is registered and reports the first
problem it finds as a *DeclarationError.
*/
package schema
