// Package domain models categorical site records and the point features
// built from them.
//
// # Data Sources
//
// Two tables are loaded once per dataset:
//
//	records: one row per record, columns addressed by index through a
//	         ColumnMapping (default: 0 = identifier, 1 = site,
//	         2 = category, 3 = subcategory).
//	sites:   one row per site, (name, lat, lon).
//
// The site table must be complete before any feature is built. A record whose
// site is missing from the table is a data-integrity problem: it is reported
// as a diagnostic and left out, the rest of the dataset still loads.
//
// # Sentinel Sites
//
// Records at the site "Various" span several locations and have no single
// coordinate. They are excluded from the feature collection but still count
// toward the dataset size reported by the loader.
//
// # Categories
//
// Known categories are the distinct values of the styling field in
// first-seen order, computed once from the full collection. Marker and
// cluster-wedge styling is keyed by position in that list, so a value keeps
// the same color everywhere. Values outside the list map to [Unclassified].
package domain
