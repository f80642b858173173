package geo

import "github.com/paulmach/orb/geojson"

func encodeGeoJSON(features []feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.geometry)
		for k, v := range f.properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	return fc.MarshalJSON()
}
