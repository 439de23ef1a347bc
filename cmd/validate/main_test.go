package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestValidateSites(t *testing.T) {
	p := validateSites([]domain.SiteRow{
		{Name: "Kiruna", Lat: ptr(67.86), Lon: ptr(20.23)},
		{Name: "Kiruna", Lat: ptr(67.86), Lon: ptr(20.23)},
		{Name: "Abisko"},
		{Name: "Pole", Lat: ptr(91), Lon: ptr(0)},
		{Name: "Various", Lat: ptr(1), Lon: ptr(1)},
		{Name: "Bad", Lat: ptr(math.NaN()), Lon: ptr(math.Inf(1))},
	})
	require.Len(t, p.errors, 6)
	assert.Contains(t, p.errors[0], "duplicates row 1")
	assert.Contains(t, p.errors[1], "no coordinates")
	assert.Contains(t, p.errors[2], "latitude 91 out of range")
	assert.Contains(t, p.errors[3], "reserved")
	assert.Contains(t, p.errors[4], "latitude NaN is not a number")
	assert.Contains(t, p.errors[5], "longitude +Inf is not a number")
}

func TestValidateRecords(t *testing.T) {
	p := validateRecords([]domain.Record{
		{Row: 1, Cells: []string{"1", "Kiruna", "Fire", "Brush"}},
		{Row: 2, Cells: []string{"2", "Various"}},
		{Row: 3, Cells: []string{"3", "Lund", "", "x"}},
		{Row: 4, Cells: []string{"4", "Lund", "Fire"}},
		{Row: 5, Cells: []string{"5"}},
	}, domain.DefaultColumnMapping())
	assert.Equal(t, []string{
		"row 3: missing category",
		"row 5: missing site",
	}, p.errors)
}

func TestValidateIcons(t *testing.T) {
	sites := domain.NewSiteLocation([]domain.SiteRow{
		{Name: "A", Lat: ptr(1), Lon: ptr(2)},
		{Name: "B", Lat: ptr(3), Lon: ptr(4)},
	})
	records := []domain.Record{
		{Row: 1, Cells: []string{"1", "A", "Fire", "x"}},
		{Row: 2, Cells: []string{"2", "A", "Flood", "y"}},
		{Row: 3, Cells: []string{"3", "B", "Fire", "z"}},
	}
	res := domain.BuildFeatures(records, sites, domain.DefaultColumnMapping())

	p := validateIcons(res.Collection)
	assert.True(t, p.passed(), "%v", p.errors)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	recordsPath := filepath.Join(dir, "records.csv")
	sitesPath := filepath.Join(dir, "sites.csv")
	require.NoError(t, os.WriteFile(recordsPath, []byte("id,site,category,subcategory\n1,A,Fire,x\n2,Various,Flood,y\n"), 0o600))
	require.NoError(t, os.WriteFile(sitesPath, []byte("A,1,2\n"), 0o600))

	assert.Equal(t, 0, run(recordsPath, sitesPath, domain.DefaultColumnMapping()))

	require.NoError(t, os.WriteFile(recordsPath, []byte("id,site,category,subcategory\n1,Nowhere,Fire,x\n"), 0o600))
	assert.Equal(t, 1, run(recordsPath, sitesPath, domain.DefaultColumnMapping()))
}

func TestValidateIcons_ReportsGroupsInFirstSeenOrder(t *testing.T) {
	c := domain.NewFeatureCollection([]domain.Feature{
		{Geo: domain.Geo{Lat: 5, Lon: 5}, Category: "Fire"},
		{Geo: domain.Geo{Lat: 1, Lon: 1}, Category: "Fire"},
		{Geo: domain.Geo{Lat: 3, Lon: 3}, Category: "Fire"},
		{Geo: domain.Geo{Lat: 1, Lon: 1}, Category: "Flood"},
	})
	opts := icon.DefaultOptions()
	ds := domain.NewDataset(c.Len(), domain.BuildResult{Collection: c}, domain.SiteLocation{}, opts.CategoryField, 1)
	layer, err := icon.NewLayer(ds, opts, nil)
	require.NoError(t, err)

	for range 5 {
		var got []domain.Geo
		for _, g := range siteGroups(c) {
			got = append(got, g.geo)
			desc, unknown := layer.IconCreate(g.ids)
			assert.Empty(t, unknown)
			assert.Equal(t, len(g.ids), desc.Count)
		}
		assert.Equal(t, []domain.Geo{{Lat: 5, Lon: 5}, {Lat: 1, Lon: 1}, {Lat: 3, Lon: 3}}, got)
	}
}
