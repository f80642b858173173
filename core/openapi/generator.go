// Package openapi generates an OpenAPI 3.0 document from registered route
// declarations.
package openapi

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/artpar/larkin/core/schema"
)

// Spec represents an OpenAPI 3.0 specification.
type Spec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
}

// Info provides API metadata.
type Info struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version"`
	License     *License `json:"license,omitempty"`
}

// License provides license information.
type License struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Server represents a server URL.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem contains operations for a path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation represents an API operation.
type Operation struct {
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	OperationID string              `json:"operationId,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"` // path, query
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Style       string  `json:"style,omitempty"`
	Explode     *bool   `json:"explode,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
}

// Response represents an API response.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType represents a media type.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Schema represents a JSON Schema.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
}

// Components contains reusable schemas.
type Components struct {
	Schemas map[string]*Schema `json:"schemas,omitempty"`
}

// Generator generates OpenAPI specs from route declarations.
type Generator struct {
	routes  []*schema.Route
	info    Info
	servers []Server
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(routes []*schema.Route) *Generator {
	return &Generator{
		routes: routes,
		info: Info{
			Title:   "larkin API",
			Version: "1",
		},
	}
}

// SetInfo sets the API info.
func (g *Generator) SetInfo(info Info) {
	g.info = info
}

// AddServer adds a server URL.
func (g *Generator) AddServer(url, description string) {
	g.servers = append(g.servers, Server{
		URL:         url,
		Description: description,
	})
}

// Generate creates the OpenAPI specification. Routes with optional
// segments produce one path per variant.
func (g *Generator) Generate() *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info:    g.info,
		Servers: g.servers,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: map[string]*Schema{
				"Error": {
					Type:       "object",
					Properties: map[string]*Schema{"error": {Type: "string"}},
					Required:   []string{"error"},
				},
			},
		},
	}

	routes := make([]*schema.Route, len(g.routes))
	copy(routes, g.routes)
	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })

	for _, r := range routes {
		g.generateRoute(spec, r)
	}

	return spec
}

func (g *Generator) generateRoute(spec *Spec, r *schema.Route) {
	pattern, err := schema.ParsePattern(r.Path)
	if err != nil {
		return
	}

	recordName := componentName(r.Path)
	spec.Components.Schemas[recordName] = recordSchema(r)

	for _, variant := range pattern.Variants() {
		inPath := make(map[string]bool)
		for _, s := range variant {
			if s.Param != "" {
				inPath[s.Param] = true
			}
		}

		path := renderVariant(variant)
		item := spec.Paths[path]
		for _, method := range r.MethodList() {
			op := g.operation(r, method, path, inPath, recordName)
			switch method {
			case "GET":
				item.Get = op
			case "POST":
				item.Post = op
			case "PUT":
				item.Put = op
			case "DELETE":
				item.Delete = op
			}
		}
		spec.Paths[path] = item
	}
}

func (g *Generator) operation(r *schema.Route, method, path string, inPath map[string]bool, recordName string) *Operation {
	required := make(map[string]bool, len(r.RequiredParameters))
	for _, name := range r.RequiredParameters {
		required[name] = true
	}

	var params []Parameter
	for _, name := range r.ParameterNames() {
		p := r.Parameters[name]
		param := Parameter{
			Name:        name,
			In:          "query",
			Description: p.Description,
			Required:    required[name],
			Schema:      parameterSchema(p),
		}
		if inPath[name] {
			param.In = "path"
			param.Required = true
		}
		if p.Type.IsList() {
			explode := false
			param.Style = "form"
			param.Explode = &explode
		}
		params = append(params, param)
	}

	description := r.Description
	if len(r.RequiresOneOf) > 0 {
		description += "\n\nAt least one of: " + strings.Join(r.RequiresOneOf, ", ")
	}

	errResponse := Response{
		Description: "Error",
		Content: map[string]MediaType{
			"application/json": {Schema: &Schema{Ref: "#/components/schemas/Error"}},
		},
	}

	return &Operation{
		Summary:     r.Description,
		Description: description,
		OperationID: operationID(method, path),
		Parameters:  params,
		Responses: map[string]Response{
			"200": {
				Description: "Records in the requested format",
				Content: map[string]MediaType{
					"application/json": {Schema: envelopeSchema(recordName)},
					"text/csv":         {Schema: &Schema{Type: "string"}},
				},
			},
			"400": errResponse,
			"404": errResponse,
			"500": errResponse,
		},
	}
}

func parameterSchema(p schema.Parameter) *Schema {
	elem := &Schema{Type: jsonType(p.Type)}
	if p.HasValues() {
		elem.Enum = p.Values
	}
	if p.Type.IsList() {
		return &Schema{Type: "array", Items: elem}
	}
	return elem
}

func recordSchema(r *schema.Route) *Schema {
	props := make(map[string]*Schema, len(r.Fields))
	for _, name := range r.FieldNames() {
		f := r.Fields[name]
		s := &Schema{Type: jsonType(f.Type), Description: f.Description}
		if f.Type.IsList() {
			s = &Schema{Type: "array", Description: f.Description, Items: &Schema{Type: jsonType(f.Type)}}
		}
		props[name] = s
	}
	return &Schema{Type: "object", Properties: props}
}

func envelopeSchema(recordName string) *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"v":       {Type: "integer"},
			"license": {Type: "string"},
			"data": {
				Type:  "array",
				Items: &Schema{Ref: "#/components/schemas/" + recordName},
			},
		},
	}
}

func jsonType(t schema.TypeName) string {
	switch t.Elem() {
	case schema.TypeInteger:
		return "number"
	case schema.TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

func renderVariant(segments []schema.Segment) string {
	return schema.Pattern{Segments: segments}.OpenAPIPath()
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func componentName(path string) string {
	var b strings.Builder
	for _, part := range nonAlnum.Split(path, -1) {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	if b.Len() == 0 {
		return "RootRecord"
	}
	return b.String() + "Record"
}

// operationID creates a unique operation ID from path and method.
func operationID(method, path string) string {
	name := strings.ToLower(path)
	name = nonAlnum.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		name = "root"
	}

	return strings.ToLower(method) + "_" + name
}

// ToJSON renders the document as indented JSON.
func (spec *Spec) ToJSON() ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ToJSONCompact renders the document as compact JSON.
func (spec *Spec) ToJSONCompact() ([]byte, error) {
	return json.Marshal(spec)
}
