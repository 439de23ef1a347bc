package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON renders the collection as a GeoJSON FeatureCollection with points
// in [lon, lat] order. decorate may add extra properties per feature.
func ToGeoJSON(c FeatureCollection, decorate func(Feature) map[string]any) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.features {
		gf := geojson.NewFeature(orb.Point{f.Geo.Lon, f.Geo.Lat})
		gf.ID = f.ID
		gf.Properties["id"] = f.ID
		gf.Properties["category"] = f.Category
		gf.Properties["subcategory"] = f.Subcategory
		if decorate != nil {
			for k, v := range decorate(f) {
				gf.Properties[k] = v
			}
		}
		fc.Append(gf)
	}
	return fc
}
