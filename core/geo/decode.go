package geo

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// decode turns a geometry column value into an orb geometry. A nil value
// decodes to a nil geometry.
func decode(v any, input string) (orb.Geometry, error) {
	if v == nil {
		return nil, nil
	}
	if g, ok := v.(orb.Geometry); ok {
		return g, nil
	}

	switch input {
	case InputGeoJSON:
		return decodeGeoJSON(v)
	case InputWKT:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("wkt geometry must be text, got %T", v)
		}
		return wkt.Unmarshal(s)
	case InputWKB:
		return decodeWKB(v)
	default:
		return nil, fmt.Errorf("unknown geometry input type %q", input)
	}
}

func decodeGeoJSON(v any) (orb.Geometry, error) {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode geojson geometry: %w", err)
		}
		data = b
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson geometry: %w", err)
	}
	return g.Geometry(), nil
}

func decodeWKB(v any) (orb.Geometry, error) {
	var data []byte
	switch t := v.(type) {
	case []byte:
		data = t
	case string:
		// Hex text first. Drivers that hand BLOBs back as text get the raw
		// bytes.
		b, err := hex.DecodeString(strings.TrimPrefix(t, "\\x"))
		if err != nil {
			b = []byte(t)
		}
		data = b
	default:
		return nil, fmt.Errorf("wkb geometry must be bytes or hex text, got %T", v)
	}

	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse wkb geometry: %w", err)
	}
	return g, nil
}
