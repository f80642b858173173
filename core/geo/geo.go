// Package geo converts geometry-bearing records into GeoJSON and TopoJSON.
//
// Each record carries its geometry in one column. The remaining columns
// become the feature's properties. Geometries may be given as GeoJSON
// (text or decoded object), WKT text, or WKB (raw or hex encoded).
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Format is an output format.
type Format string

const (
	FormatGeoJSON  Format = "geojson"
	FormatTopoJSON Format = "topojson"
)

// Input encodings of the geometry column.
const (
	InputGeoJSON = "geojson"
	InputWKT     = "wkt"
	InputWKB     = "wkb"
)

// DefaultPrecision is the number of decimal digits coordinates keep.
const DefaultPrecision = 6

// ErrUnknownFormat is reported for output formats other than GeoJSON and
// TopoJSON.
var ErrUnknownFormat = errors.New("unknown geometry output format")

// Options configures a converter.
type Options struct {
	// Precision is the number of decimal digits coordinates are rounded to.
	Precision int

	// GeometryColumn is the record key holding the geometry.
	GeometryColumn string

	// GeometryType is the encoding of the geometry column: geojson, wkt
	// or wkb.
	GeometryType string
}

// DefaultOptions returns precision 6 over a "geometry" column holding
// GeoJSON.
func DefaultOptions() Options {
	return Options{
		Precision:      DefaultPrecision,
		GeometryColumn: "geometry",
		GeometryType:   InputGeoJSON,
	}
}

// Callback receives the result of one conversion. It is called exactly
// once: out is the JSON document on success, err is set on failure.
type Callback func(out []byte, err error)

// Converter converts records to a geometry format asynchronously.
type Converter interface {
	Convert(data []map[string]any, format Format, cb Callback)
}

// OrbConverter is a Converter built on paulmach/orb.
type OrbConverter struct {
	opts Options
}

// NewOrbConverter creates a converter. Zero-valued options fall back to
// DefaultOptions.
func NewOrbConverter(opts Options) *OrbConverter {
	def := DefaultOptions()
	if opts.Precision <= 0 {
		opts.Precision = def.Precision
	}
	if opts.GeometryColumn == "" {
		opts.GeometryColumn = def.GeometryColumn
	}
	if opts.GeometryType == "" {
		opts.GeometryType = def.GeometryType
	}
	return &OrbConverter{opts: opts}
}

// Options returns the converter's effective options.
func (c *OrbConverter) Options() Options {
	return c.opts
}

// Convert converts data in a new goroutine and reports through cb.
func (c *OrbConverter) Convert(data []map[string]any, format Format, cb Callback) {
	go func() {
		out, err := c.ConvertSync(data, format)
		cb(out, err)
	}()
}

// ConvertSync converts data on the calling goroutine.
func (c *OrbConverter) ConvertSync(data []map[string]any, format Format) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("geometry conversion panicked: %v", r)
		}
	}()

	features, err := c.features(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatGeoJSON:
		return encodeGeoJSON(features)
	case FormatTopoJSON:
		return encodeTopoJSON(features)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type feature struct {
	geometry   orb.Geometry
	properties map[string]any
}

func (c *OrbConverter) features(data []map[string]any) ([]feature, error) {
	factor := int(math.Pow10(c.opts.Precision))

	out := make([]feature, 0, len(data))
	for i, rec := range data {
		raw, ok := rec[c.opts.GeometryColumn]
		if !ok {
			return nil, fmt.Errorf("record %d has no %q column", i, c.opts.GeometryColumn)
		}

		g, err := decode(raw, c.opts.GeometryType)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if g != nil {
			g = orb.Round(orb.Clone(g), factor)
		}

		props := make(map[string]any, len(rec))
		for k, v := range rec {
			if k != c.opts.GeometryColumn {
				props[k] = v
			}
		}
		out = append(out, feature{geometry: g, properties: props})
	}
	return out, nil
}
