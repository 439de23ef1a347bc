package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFire  = "Fire"
	testFlood = "Flood"
)

func rec(row int, site, category, subcategory string) Record {
	return Record{Row: row, Cells: []string{"id", site, category, subcategory}}
}

func testSites() SiteLocation {
	return NewSiteLocation([]SiteRow{
		{Name: "A", Lat: ptr(10), Lon: ptr(20)},
		{Name: "B", Lat: ptr(-5.5), Lon: ptr(100.25)},
	})
}

func TestBuildFeatures_EndToEndScenario(t *testing.T) {
	records := []Record{
		rec(1, "A", testFire, "Arson"),
		rec(2, "A", testFlood, "River"),
		rec(3, VariousSite, testFire, "Arson"),
	}

	res := BuildFeatures(records, testSites(), DefaultColumnMapping())

	require.Equal(t, 2, res.Collection.Len())
	assert.Equal(t, 1, res.Excluded)
	assert.Empty(t, res.Diagnostics)

	want := []Feature{
		{ID: 0, Geo: Geo{Lat: 10, Lon: 20}, Category: testFire, Subcategory: "Arson"},
		{ID: 1, Geo: Geo{Lat: 10, Lon: 20}, Category: testFlood, Subcategory: "River"},
	}
	if diff := cmp.Diff(want, res.Collection.Features()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFeatures_UnknownSiteIsReportedAndSkipped(t *testing.T) {
	records := []Record{
		rec(1, "A", testFire, "x"),
		rec(2, "Missing", testFlood, "y"),
		rec(3, "B", testFlood, "z"),
	}

	res := BuildFeatures(records, testSites(), DefaultColumnMapping())

	assert.Equal(t, 2, res.Collection.Len())
	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0], ErrSiteNotFound)

	var lookupErr *LookupError
	require.ErrorAs(t, res.Diagnostics[0], &lookupErr)
	assert.Equal(t, 2, lookupErr.Row)
	assert.Equal(t, "Missing", lookupErr.Site)

	f, ok := res.Collection.Get(1)
	require.True(t, ok)
	assert.Equal(t, Geo{Lat: -5.5, Lon: 100.25}, f.Geo)
}

func TestBuildFeatures_ShortRecord(t *testing.T) {
	records := []Record{{Row: 7, Cells: []string{"id"}}}

	res := BuildFeatures(records, testSites(), DefaultColumnMapping())

	assert.Equal(t, 0, res.Collection.Len())
	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0], ErrShortRecord)
}

func TestBuildFeatures_MissingTrailingCells(t *testing.T) {
	records := []Record{
		{Row: 1, Cells: []string{"r1", "A", testFire}},
		{Row: 2, Cells: []string{"r2", VariousSite}},
		{Row: 3, Cells: []string{"r3", "B"}},
	}

	res := BuildFeatures(records, testSites(), DefaultColumnMapping())

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.Excluded)
	want := []Feature{
		{ID: 0, Geo: Geo{Lat: 10, Lon: 20}, Category: testFire},
		{ID: 1, Geo: Geo{Lat: -5.5, Lon: 100.25}},
	}
	if diff := cmp.Diff(want, res.Collection.Features()); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSiteLocation_RejectsInvalidCoordinates(t *testing.T) {
	rows := []SiteRow{
		{Name: "Good", Lat: ptr(10), Lon: ptr(20)},
		{Name: "NaN", Lat: ptr(math.NaN()), Lon: ptr(20)},
		{Name: "Inf", Lat: ptr(10), Lon: ptr(math.Inf(1))},
		{Name: "Far", Lat: ptr(200), Lon: ptr(999)},
		{Name: "Edge", Lat: ptr(-90), Lon: ptr(180)},
	}
	for _, r := range rows[1:4] {
		assert.False(t, r.Resolved(), r.Name)
	}

	sites := NewSiteLocation(rows)
	assert.Equal(t, 2, sites.Len())

	records := []Record{
		rec(1, "Good", testFire, "x"),
		rec(2, "NaN", testFire, "x"),
		rec(3, "Far", testFlood, "y"),
	}
	res := BuildFeatures(records, sites, DefaultColumnMapping())

	assert.Equal(t, 1, res.Collection.Len())
	require.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.ErrorIs(t, d, ErrSiteNotFound)
	}
}

func TestBuildFeatures_CustomMapping(t *testing.T) {
	records := []Record{{Row: 1, Cells: []string{"Flood", "River", "B"}}}
	mapping := ColumnMapping{Site: 2, Category: 0, Subcategory: 1}

	res := BuildFeatures(records, testSites(), mapping)

	require.Equal(t, 1, res.Collection.Len())
	f, _ := res.Collection.Get(0)
	assert.Equal(t, testFlood, f.Category)
	assert.Equal(t, "River", f.Subcategory)
}

func TestBuildFeatures_SizeBound(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    int
	}{
		{"all resolve", []Record{rec(1, "A", "x", "y"), rec(2, "B", "x", "y")}, 2},
		{"various excluded", []Record{rec(1, "A", "x", "y"), rec(2, VariousSite, "x", "y")}, 1},
		{"missing site", []Record{rec(1, "C", "x", "y")}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := BuildFeatures(tt.records, testSites(), DefaultColumnMapping())
			assert.Equal(t, tt.want, res.Collection.Len())
			assert.LessOrEqual(t, res.Collection.Len(), len(tt.records))
		})
	}
}

func TestFeatureCollection_Immutable(t *testing.T) {
	c := NewFeatureCollection([]Feature{{Category: testFire}})

	out := c.Features()
	out[0].Category = "changed"

	f, _ := c.Get(0)
	assert.Equal(t, testFire, f.Category)

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(-1)
	assert.False(t, ok)
}

func TestFeatureCollection_Bounds(t *testing.T) {
	c := NewFeatureCollection([]Feature{
		{Geo: Geo{Lat: 10, Lon: 20}},
		{Geo: Geo{Lat: 30, Lon: 45}},
		{Geo: Geo{Lat: 15, Lon: 30}},
	})

	b := c.Bounds()

	assert.InDelta(t, 10, b.Lo().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 20, b.Lo().Lng.Degrees(), 1e-9)
	assert.InDelta(t, 30, b.Hi().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 45, b.Hi().Lng.Degrees(), 1e-9)

	assert.True(t, NewFeatureCollection(nil).Bounds().IsEmpty())
}

func TestParseCategoryField(t *testing.T) {
	f, err := ParseCategoryField("Subcategory")
	require.NoError(t, err)
	assert.Equal(t, FieldSubcategory, f)

	_, err = ParseCategoryField("genre")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestColumnMapping_Validate(t *testing.T) {
	assert.NoError(t, DefaultColumnMapping().Validate())
	assert.Error(t, ColumnMapping{Site: -1}.Validate())
}
