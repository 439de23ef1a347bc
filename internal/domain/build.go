package domain

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s2"
)

var (
	// ErrSiteNotFound marks a record whose site has no entry in the site table.
	ErrSiteNotFound = errors.New("site not found")
	// ErrShortRecord marks a record too short to carry a site cell.
	ErrShortRecord = errors.New("record has no site column")
)

// LookupError is the data-integrity diagnostic for a record that could not
// be placed on the map.
type LookupError struct {
	Row  int
	Site string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("record row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("record row %d: site %q: %v", e.Row, e.Site, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// FeatureCollection is an ordered, immutable set of features.
type FeatureCollection struct {
	features []Feature
}

// NewFeatureCollection copies features and renumbers their IDs by position.
func NewFeatureCollection(features []Feature) FeatureCollection {
	out := make([]Feature, len(features))
	for i, f := range features {
		f.ID = i
		out[i] = f
	}
	return FeatureCollection{features: out}
}

// Len returns the number of features.
func (c FeatureCollection) Len() int { return len(c.features) }

// Features returns a copy of the features in insertion order.
func (c FeatureCollection) Features() []Feature {
	out := make([]Feature, len(c.features))
	copy(out, c.features)
	return out
}

// Get returns the feature with the given ID.
func (c FeatureCollection) Get(id int) (Feature, bool) {
	if id < 0 || id >= len(c.features) {
		return Feature{}, false
	}
	return c.features[id], true
}

// Bounds returns the smallest lat/lng rectangle containing every feature.
// An empty collection yields s2.EmptyRect().
func (c FeatureCollection) Bounds() s2.Rect {
	rect := s2.EmptyRect()
	for _, f := range c.features {
		rect = rect.AddPoint(s2.LatLngFromDegrees(f.Geo.Lat, f.Geo.Lon))
	}
	return rect
}

// BuildResult is the outcome of joining records with site coordinates.
type BuildResult struct {
	Collection FeatureCollection
	// Diagnostics holds one *LookupError per record that was dropped because
	// it could not be resolved.
	Diagnostics []error
	// Excluded counts records at the Various sentinel site.
	Excluded int
}

// BuildFeatures joins records with the site table. Records at VariousSite
// are excluded; records whose site is missing are reported in Diagnostics and
// skipped. Feature order follows record order.
func BuildFeatures(records []Record, sites SiteLocation, mapping ColumnMapping) BuildResult {
	var res BuildResult
	features := make([]Feature, 0, len(records))

	for _, rec := range records {
		site, ok := rec.Cell(mapping.Site)
		if !ok {
			res.Diagnostics = append(res.Diagnostics, &LookupError{Row: rec.Row, Err: ErrShortRecord})
			continue
		}
		if site == VariousSite {
			res.Excluded++
			continue
		}
		// Missing trailing cells read as empty and style as unclassified.
		category, _ := rec.Cell(mapping.Category)
		subcategory, _ := rec.Cell(mapping.Subcategory)

		geo, ok := sites.Lookup(site)
		if !ok {
			res.Diagnostics = append(res.Diagnostics, &LookupError{Row: rec.Row, Site: site, Err: ErrSiteNotFound})
			continue
		}

		features = append(features, Feature{
			Geo:         geo,
			Category:    category,
			Subcategory: subcategory,
		})
	}

	res.Collection = NewFeatureCollection(features)
	return res
}
