package icon

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

// ErrUnknownFeature is returned for a feature ID outside the dataset.
var ErrUnknownFeature = errors.New("unknown feature")

// ClusterOptions is the tuning handed to the host's clusterer at init.
type ClusterOptions struct {
	MaxClusterRadius int `json:"maxClusterRadius"`
}

// Layer binds one dataset to a synthesizer and exposes the two callbacks
// the host map invokes: PointToLayer per marker, IconCreate per cluster.
type Layer struct {
	dataset *domain.Dataset
	synth   *Synthesizer
}

// NewLayer builds a synthesizer over the dataset's known categories.
func NewLayer(ds *domain.Dataset, opts Options, displayNames map[string]string) (*Layer, error) {
	synth, err := NewSynthesizer(opts, ds.Known, displayNames)
	if err != nil {
		return nil, err
	}
	return &Layer{dataset: ds, synth: synth}, nil
}

// Dataset returns the dataset the layer renders.
func (l *Layer) Dataset() *domain.Dataset { return l.dataset }

// ClusterOptions returns the clustering radius for the host.
func (l *Layer) ClusterOptions() ClusterOptions {
	return ClusterOptions{MaxClusterRadius: l.synth.opts.MaxClusterRadius()}
}

// PointToLayer returns the marker icon for one feature.
func (l *Layer) PointToLayer(id int) (MarkerDescriptor, error) {
	f, ok := l.dataset.Collection.Get(id)
	if !ok {
		return MarkerDescriptor{}, fmt.Errorf("%w: %d", ErrUnknownFeature, id)
	}
	return l.synth.Marker(f), nil
}

// IconCreate renders the icon for a cluster given its current member IDs.
// IDs not in the dataset are left out of the icon and returned.
func (l *Layer) IconCreate(ids []int) (IconDescriptor, []int) {
	members, unknown := l.dataset.Members(ids)
	return l.synth.Synthesize(members), unknown
}

// Decorate returns the marker properties merged into each GeoJSON feature.
func (l *Layer) Decorate(f domain.Feature) map[string]any {
	m := l.synth.Marker(f)
	props := map[string]any{
		"className":  m.ClassName,
		"styleIndex": m.StyleIndex,
	}
	if m.IconValue != "" {
		props["iconValue"] = m.IconValue
	}
	return props
}
