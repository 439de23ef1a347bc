// Command validate performs data integrity checks on the record and site
// tables before they are published. It verifies the site table, the record
// rows against the column mapping, cross-references records to sites, and
// renders every site's cluster icon to confirm the output is well formed.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -records data/records.csv \
//	  -sites data/sites.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/site-cluster-map/internal/adapter/csvfile"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	recordsPath := flag.String("records", "", "records CSV with a header row")
	sitesPath := flag.String("sites", "", "sites CSV of name,lat,lon rows")
	siteCol := flag.Int("site-col", 1, "record column holding the site name")
	categoryCol := flag.Int("category-col", 2, "record column holding the category")
	subcategoryCol := flag.Int("subcategory-col", 3, "record column holding the subcategory")
	flag.Parse()

	if *recordsPath == "" || *sitesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	mapping := domain.ColumnMapping{Site: *siteCol, Category: *categoryCol, Subcategory: *subcategoryCol}
	if code := run(*recordsPath, *sitesPath, mapping); code != 0 {
		os.Exit(code)
	}
}

func run(recordsPath, sitesPath string, mapping domain.ColumnMapping) int {
	fmt.Println("=== Site Data Integrity Validation ===")
	fmt.Println()

	if err := mapping.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	src := csvfile.NewSource(recordsPath, sitesPath)
	records, err := src.FetchRecords(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load records: %v\n", err)
		return 1
	}
	rows, err := src.FetchSites(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sites: %v\n", err)
		return 1
	}

	sites := domain.NewSiteLocation(rows)
	res := domain.BuildFeatures(records, sites, mapping)

	phases := []*phase{
		validateSites(rows),
		validateRecords(records, mapping),
		validateCrossReference(res),
		validateIcons(res.Collection),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d read, %d placed, %d at %s; sites: %d rows, %d with coordinates\n",
		len(records), res.Collection.Len(), res.Excluded, domain.VariousSite, len(rows), sites.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Site table ──

func validateSites(rows []domain.SiteRow) *phase {
	p := &phase{name: "Phase 1: Site Table"}
	seen := map[string]int{}
	for i, r := range rows {
		name := strings.TrimSpace(r.Name)
		if prev, ok := seen[name]; ok {
			p.errorf("row %d: site %q duplicates row %d", i+1, name, prev)
		} else {
			seen[name] = i + 1
		}
		if name == domain.VariousSite {
			p.errorf("row %d: %q is reserved for multi-site records", i+1, name)
		}
		if r.Lat == nil || r.Lon == nil {
			p.errorf("row %d: site %q has no coordinates", i+1, name)
			continue
		}
		checkCoord(p, i+1, name, "latitude", *r.Lat, 90)
		checkCoord(p, i+1, name, "longitude", *r.Lon, 180)
	}
	return p
}

func checkCoord(p *phase, row int, name, axis string, v, limit float64) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		p.errorf("row %d: site %q %s %g is not a number", row, name, axis, v)
	case v < -limit || v > limit:
		p.errorf("row %d: site %q %s %g out of range", row, name, axis, v)
	}
}

// ── Phase 2: Record rows ──

func validateRecords(records []domain.Record, mapping domain.ColumnMapping) *phase {
	p := &phase{name: "Phase 2: Record Rows"}
	for _, rec := range records {
		site, ok := rec.Cell(mapping.Site)
		if !ok || site == "" {
			p.errorf("row %d: missing site", rec.Row)
			continue
		}
		if site == domain.VariousSite {
			continue
		}
		if category, ok := rec.Cell(mapping.Category); !ok || category == "" {
			p.errorf("row %d: missing category", rec.Row)
		}
	}
	return p
}

// ── Phase 3: Records to sites ──

func validateCrossReference(res domain.BuildResult) *phase {
	p := &phase{name: "Phase 3: Record/Site Cross-Reference"}
	for _, d := range res.Diagnostics {
		p.errorf("%v", d)
	}
	return p
}

// ── Phase 4: Icon rendering ──
// Every co-located group is one cluster; its icon must account for every
// member and close the ring.

func validateIcons(c domain.FeatureCollection) *phase {
	p := &phase{name: "Phase 4: Icon Rendering"}
	opts := icon.DefaultOptions()
	ds := domain.NewDataset(c.Len(), domain.BuildResult{Collection: c}, domain.SiteLocation{}, opts.CategoryField, 1)
	layer, err := icon.NewLayer(ds, opts, nil)
	if err != nil {
		p.errorf("icon options: %v", err)
		return p
	}

	for _, f := range c.Features() {
		m, err := layer.PointToLayer(f.ID)
		if err != nil {
			p.errorf("feature %d: %v", f.ID, err)
			continue
		}
		if m.StyleIndex == domain.Unclassified {
			p.errorf("feature %d: category %q has no style", f.ID, f.Category)
		}
	}

	for _, g := range siteGroups(c) {
		geo, ids := g.geo, g.ids
		desc, unknown := layer.IconCreate(ids)
		if len(unknown) > 0 {
			p.errorf("site (%g, %g): unknown members %v", geo.Lat, geo.Lon, unknown)
		}
		if desc.Count != len(ids) {
			p.errorf("site (%g, %g): icon counts %d of %d members", geo.Lat, geo.Lon, desc.Count, len(ids))
		}
		var span float64
		for _, w := range desc.Wedges {
			span += w.Span()
		}
		if math.Abs(span-360) > 1e-9 {
			p.errorf("site (%g, %g): wedges span %g degrees", geo.Lat, geo.Lon, span)
		}
		if desc.Size != opts.IconDim(len(ids)) {
			p.errorf("site (%g, %g): icon size %d, want %d", geo.Lat, geo.Lon, desc.Size, opts.IconDim(len(ids)))
		}
	}
	return p
}

type siteGroup struct {
	geo domain.Geo
	ids []int
}

// siteGroups collects feature IDs by position, in first-seen order.
func siteGroups(c domain.FeatureCollection) []siteGroup {
	index := map[domain.Geo]int{}
	var groups []siteGroup
	for _, f := range c.Features() {
		i, ok := index[f.Geo]
		if !ok {
			i = len(groups)
			index[f.Geo] = i
			groups = append(groups, siteGroup{geo: f.Geo})
		}
		groups[i].ids = append(groups[i].ids, f.ID)
	}
	return groups
}
