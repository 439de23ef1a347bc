package icon

import "github.com/couchcryptid/site-cluster-map/internal/domain"

// MarkerDescriptor is the icon for a single, unclustered feature.
type MarkerDescriptor struct {
	ID         int     `json:"id"`
	ClassName  string  `json:"className"`
	StyleIndex int     `json:"styleIndex"`
	IconValue  string  `json:"iconValue,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Marker styles a feature by the index of its category among the known
// categories. Unseen categories get the unclassified class.
func (s *Synthesizer) Marker(f domain.Feature) MarkerDescriptor {
	idx := s.known.Index(f.Value(s.opts.CategoryField))
	return MarkerDescriptor{
		ID:         f.ID,
		ClassName:  "marker " + CategoryClass(idx),
		StyleIndex: idx,
		IconValue:  f.Value(s.opts.IconField),
		Lat:        f.Geo.Lat,
		Lon:        f.Geo.Lon,
	}
}
