package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileFormat identifies the encoding of a declaration file.
type FileFormat string

const (
	FormatYAML FileFormat = "yaml"
	FormatTOML FileFormat = "toml"
	FormatJSON FileFormat = "json"
)

// FormatForPath returns the declaration format implied by a file extension.
func FormatForPath(path string) (FileFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// ParseFile parses a route declaration from a file.
func ParseFile(path string) (Route, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return Route{}, fmt.Errorf("parse %s: unsupported file extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Route{}, fmt.Errorf("read file %s: %w", path, err)
	}

	route, err := Parse(data, format)
	if err != nil {
		return Route{}, fmt.Errorf("%s: %w", path, err)
	}
	return route, nil
}

// Parse decodes a route declaration. It does not validate the result;
// validation happens when the route is registered.
func Parse(data []byte, format FileFormat) (Route, error) {
	var route Route

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &route); err != nil {
			return Route{}, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &route); err != nil {
			return Route{}, fmt.Errorf("parse toml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&route); err != nil {
			return Route{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Route{}, fmt.Errorf("unknown declaration format %q", format)
	}

	return route, nil
}

// ParseDir parses every declaration file under dir, including
// subdirectories. Files with other extensions are ignored.
func ParseDir(dir string) ([]Route, error) {
	var routes []Route

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			routes = append(routes, sub...)
			continue
		}

		if _, ok := FormatForPath(path); !ok {
			continue
		}

		route, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		routes = append(routes, route)
	}

	return routes, nil
}
