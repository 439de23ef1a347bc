package domain

import (
	"math"
	"strings"
)

// SiteRow is one row of the site-location table. Nil coordinates mean the
// row has not been resolved yet.
type SiteRow struct {
	Name string
	Lat  *float64
	Lon  *float64
}

// Resolved reports whether both coordinates are present and form a valid
// WGS-84 position. NaN, infinite, or out-of-range values count as unresolved.
func (r SiteRow) Resolved() bool {
	return r.Lat != nil && r.Lon != nil && (Geo{Lat: *r.Lat, Lon: *r.Lon}).Valid()
}

// Valid reports whether g is a finite latitude in [-90, 90] and a finite
// longitude in [-180, 180].
func (g Geo) Valid() bool {
	return finiteIn(g.Lat, 90) && finiteIn(g.Lon, 180)
}

func finiteIn(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}

// SiteLocation maps site names to coordinates. It is read-only once built.
type SiteLocation struct {
	byName map[string]Geo
}

// NewSiteLocation freezes resolved rows into a lookup table. Unresolved rows
// are left out; later rows win on duplicate names.
func NewSiteLocation(rows []SiteRow) SiteLocation {
	byName := make(map[string]Geo, len(rows))
	for _, row := range rows {
		if !row.Resolved() {
			continue
		}
		byName[strings.TrimSpace(row.Name)] = Geo{Lat: *row.Lat, Lon: *row.Lon}
	}
	return SiteLocation{byName: byName}
}

// Lookup returns the coordinates of a site.
func (s SiteLocation) Lookup(name string) (Geo, bool) {
	g, ok := s.byName[strings.TrimSpace(name)]
	return g, ok
}

// Len returns the number of sites with coordinates.
func (s SiteLocation) Len() int {
	return len(s.byName)
}
