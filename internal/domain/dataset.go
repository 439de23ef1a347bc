package domain

import "time"

// Dataset is everything downstream rendering needs from one load. It is
// never mutated after NewDataset returns.
type Dataset struct {
	Collection FeatureCollection
	Sites      SiteLocation
	Known      KnownCategories
	Version    uint64
	LoadedAt   time.Time
	// Records is the number of records read from the source.
	Records int
	// Excluded counts records at the Various site.
	Excluded int
	// Skipped counts records dropped with a diagnostic.
	Skipped int
}

// NewDataset freezes a build result. Known categories are computed from the
// full collection over styleField.
func NewDataset(records int, res BuildResult, sites SiteLocation, styleField CategoryField, version uint64) *Dataset {
	return &Dataset{
		Collection: res.Collection,
		Sites:      sites,
		Known:      NewKnownCategories(res.Collection, styleField, version),
		Version:    version,
		LoadedAt:   clock.Now(),
		Records:    records,
		Excluded:   res.Excluded,
		Skipped:    len(res.Diagnostics),
	}
}

// Members resolves feature IDs against the collection. Unknown IDs are
// returned separately so a bad handle never breaks a cluster render.
func (d *Dataset) Members(ids []int) ([]Feature, []int) {
	members := make([]Feature, 0, len(ids))
	var unknown []int
	for _, id := range ids {
		f, ok := d.Collection.Get(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		members = append(members, f)
	}
	return members, unknown
}
