package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// ObjectName is the name of the single geometry collection in the
// topologies this package produces.
const ObjectName = "output"

type topology struct {
	Type    string                  `json:"type"`
	BBox    []float64               `json:"bbox,omitempty"`
	Objects map[string]topoGeometry `json:"objects"`
	Arcs    [][][2]float64          `json:"arcs"`
}

// topoGeometry.Type is nil for a null geometry and a string otherwise.
type topoGeometry struct {
	Type        any            `json:"type"`
	Arcs        any            `json:"arcs,omitempty"`
	Coordinates any            `json:"coordinates,omitempty"`
	Geometries  []topoGeometry `json:"geometries,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// arcIndex stores each distinct line once. A line that repeats an earlier
// arc in reverse is referenced by the complement of that arc's index.
type arcIndex struct {
	arcs [][][2]float64
	seen map[string]int
}

func (a *arcIndex) add(points []orb.Point) int {
	key := arcKey(points)
	if i, ok := a.seen[key]; ok {
		return i
	}
	reversed := make([]orb.Point, len(points))
	for i, p := range points {
		reversed[len(points)-1-i] = p
	}
	if i, ok := a.seen[arcKey(reversed)]; ok {
		return ^i
	}

	arc := make([][2]float64, len(points))
	for i, p := range points {
		arc[i] = [2]float64{p[0], p[1]}
	}
	idx := len(a.arcs)
	a.arcs = append(a.arcs, arc)
	a.seen[key] = idx
	return idx
}

func arcKey(points []orb.Point) string {
	b, _ := json.Marshal(points)
	return string(b)
}

func encodeTopoJSON(features []feature) ([]byte, error) {
	idx := &arcIndex{seen: make(map[string]int)}

	var (
		bound    orb.Bound
		hasBound bool
	)

	geometries := make([]topoGeometry, 0, len(features))
	for _, f := range features {
		tg, err := idx.geometry(f.geometry)
		if err != nil {
			return nil, err
		}
		if len(f.properties) > 0 {
			tg.Properties = f.properties
		}
		geometries = append(geometries, tg)

		if f.geometry != nil {
			b := f.geometry.Bound()
			if hasBound {
				bound = bound.Union(b)
			} else {
				bound, hasBound = b, true
			}
		}
	}

	topo := topology{
		Type: "Topology",
		Objects: map[string]topoGeometry{
			ObjectName: {Type: "GeometryCollection", Geometries: geometries},
		},
		Arcs: idx.arcs,
	}
	if topo.Arcs == nil {
		topo.Arcs = [][][2]float64{}
	}
	if hasBound {
		topo.BBox = []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
	}

	return json.Marshal(topo)
}

func (a *arcIndex) geometry(g orb.Geometry) (topoGeometry, error) {
	switch t := g.(type) {
	case nil:
		return topoGeometry{}, nil
	case orb.Point:
		return topoGeometry{Type: "Point", Coordinates: [2]float64{t[0], t[1]}}, nil
	case orb.MultiPoint:
		coords := make([][2]float64, len(t))
		for i, p := range t {
			coords[i] = [2]float64{p[0], p[1]}
		}
		return topoGeometry{Type: "MultiPoint", Coordinates: coords}, nil
	case orb.LineString:
		return topoGeometry{Type: "LineString", Arcs: []int{a.add(t)}}, nil
	case orb.MultiLineString:
		arcs := make([][]int, len(t))
		for i, ls := range t {
			arcs[i] = []int{a.add(ls)}
		}
		return topoGeometry{Type: "MultiLineString", Arcs: arcs}, nil
	case orb.Ring:
		return topoGeometry{Type: "Polygon", Arcs: a.rings(orb.Polygon{t})}, nil
	case orb.Polygon:
		return topoGeometry{Type: "Polygon", Arcs: a.rings(t)}, nil
	case orb.MultiPolygon:
		arcs := make([][][]int, len(t))
		for i, p := range t {
			arcs[i] = a.rings(p)
		}
		return topoGeometry{Type: "MultiPolygon", Arcs: arcs}, nil
	case orb.Collection:
		children := make([]topoGeometry, 0, len(t))
		for _, c := range t {
			tg, err := a.geometry(c)
			if err != nil {
				return topoGeometry{}, err
			}
			children = append(children, tg)
		}
		return topoGeometry{Type: "GeometryCollection", Geometries: children}, nil
	case orb.Bound:
		return a.geometry(t.ToPolygon())
	default:
		return topoGeometry{}, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func (a *arcIndex) rings(p orb.Polygon) [][]int {
	arcs := make([][]int, len(p))
	for i, r := range p {
		arcs[i] = []int{a.add(r)}
	}
	return arcs
}
