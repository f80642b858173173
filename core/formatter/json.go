package formatter

import (
	"context"
	"encoding/json"
	"io"
)

// Envelope is the JSON body of a successful response.
type Envelope struct {
	V       int    `json:"v"`
	License string `json:"license"`
	Data    any    `json:"data"`
}

// JSONFormatter wraps data in the {v, license, data} envelope.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// ContentType returns the response Content-Type.
func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

// Format writes the envelope.
func (f *JSONFormatter) Format(_ context.Context, w io.Writer, info Info, data []map[string]any) error {
	if data == nil {
		data = []map[string]any{}
	}
	return json.NewEncoder(w).Encode(Envelope{V: info.Version, License: info.License, Data: data})
}
