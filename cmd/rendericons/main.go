// Command rendericons renders cluster icons offline from local CSV tables.
// Records at the same site always fall into one cluster, so it writes one
// SVG per site plus the decorated GeoJSON collection. The output is handy for
// checking a stylesheet against real data without running the service.
//
// Usage:
//
//	go run ./cmd/rendericons \
//	  -records data/records.csv \
//	  -sites data/sites.csv \
//	  -out build/icons
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/couchcryptid/site-cluster-map/internal/adapter/csvfile"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	recordsPath := flag.String("records", "", "records CSV with a header row")
	sitesPath := flag.String("sites", "", "sites CSV of name,lat,lon rows")
	outDir := flag.String("out", "", "output directory for SVG and GeoJSON files")
	rmax := flag.Int("rmax", 30, "maximum icon radius in pixels")
	strokeWidth := flag.Int("stroke-width", 1, "wedge stroke width in pixels")
	field := flag.String("field", string(domain.FieldCategory), "attribute that colors wedges: category or subcategory")
	flag.Parse()

	if *recordsPath == "" || *sitesPath == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -records, -sites, -out")
	}

	styleField, err := domain.ParseCategoryField(*field)
	if err != nil {
		return err
	}
	opts := icon.DefaultOptions()
	opts.RMax = *rmax
	opts.StrokeWidth = *strokeWidth
	opts.CategoryField = styleField

	ctx := context.Background()
	src := csvfile.NewSource(*recordsPath, *sitesPath)
	records, err := src.FetchRecords(ctx)
	if err != nil {
		return err
	}
	rows, err := src.FetchSites(ctx)
	if err != nil {
		return err
	}

	sites := domain.NewSiteLocation(rows)
	res := domain.BuildFeatures(records, sites, domain.DefaultColumnMapping())
	for _, d := range res.Diagnostics {
		log.Printf("skipped: %v", d)
	}

	ds := domain.NewDataset(len(records), res, sites, styleField, 1)
	layer, err := icon.NewLayer(ds, opts, nil)
	if err != nil {
		return fmt.Errorf("icon options: %w", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	groups := groupBySite(ds.Collection, rows)
	names := fileNames(groups)
	for i, g := range groups {
		desc, _ := layer.IconCreate(g.ids)
		path := filepath.Join(*outDir, names[i]+".svg")
		if err := os.WriteFile(path, []byte(desc.HTML), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s: %d records, %dpx", g.name, desc.Count, desc.Size)
	}

	fc := domain.ToGeoJSON(ds.Collection, layer.Decorate)
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	geoPath := filepath.Join(*outDir, "features.geojson")
	if err := os.WriteFile(geoPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", geoPath, err)
	}
	log.Printf("wrote %s", geoPath)

	printStats(ds, len(groups))
	return nil
}

type siteGroup struct {
	name string
	ids  []int
}

// groupBySite collects feature IDs per coordinate. The name is the first site
// row at that coordinate.
func groupBySite(c domain.FeatureCollection, rows []domain.SiteRow) []siteGroup {
	names := map[domain.Geo]string{}
	for _, r := range rows {
		if !r.Resolved() {
			continue
		}
		g := domain.Geo{Lat: *r.Lat, Lon: *r.Lon}
		if _, ok := names[g]; !ok {
			names[g] = r.Name
		}
	}

	byGeo := map[domain.Geo]*siteGroup{}
	var groups []*siteGroup
	for _, f := range c.Features() {
		g, ok := byGeo[f.Geo]
		if !ok {
			g = &siteGroup{name: names[f.Geo]}
			byGeo[f.Geo] = g
			groups = append(groups, g)
		}
		g.ids = append(g.ids, f.ID)
	}

	out := make([]siteGroup, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

// slug turns a site name into a file name.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "site"
	}
	return s
}

// fileNames slugs each group name, suffixing repeats with -2, -3, ... so no
// two groups share a file.
func fileNames(groups []siteGroup) []string {
	used := make(map[string]bool, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		base := slug(g.name)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func printStats(ds *domain.Dataset, sites int) {
	fmt.Println("\n=== Dataset ===")
	fmt.Printf("Records: %d, features: %d, excluded (%s): %d, skipped: %d\n",
		ds.Records, ds.Collection.Len(), domain.VariousSite, ds.Excluded, ds.Skipped)
	fmt.Printf("Sites rendered: %d of %d known\n", sites, ds.Sites.Len())

	tally := domain.TallyBy(ds.Collection.Features(), ds.Known.Field())
	keys := tally.Keys()
	sort.SliceStable(keys, func(i, j int) bool { return tally.Count(keys[i]) > tally.Count(keys[j]) })
	fmt.Printf("By %s (%d):", ds.Known.Field(), len(keys))
	for _, k := range keys {
		fmt.Printf(" %s=%d", k, tally.Count(k))
	}
	fmt.Println()
}
