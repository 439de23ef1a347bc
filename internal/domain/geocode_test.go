package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	results map[string]GeocodingResult
	err     error
	calls   []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, _ string) (GeocodingResult, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return GeocodingResult{}, m.err
	}
	return m.results[name], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// --- tests ---

func TestResolveSites_NilGeocoder(t *testing.T) {
	rows := []SiteRow{
		{Name: "Aleppo", Lat: ptr(36.2), Lon: ptr(37.15)},
		{Name: "Palmyra"},
	}

	out, diags := ResolveSites(context.Background(), rows, nil, "", discardLogger())

	assert.Equal(t, rows, out)
	require.Len(t, diags, 1)
	assert.ErrorIs(t, diags[0], ErrUnresolvedSite)
	assert.Contains(t, diags[0].Error(), "Palmyra")
}

func TestResolveSites_FillsMissingCoordinates(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"Palmyra": {Lat: 34.55, Lon: 38.27, PlaceName: "Palmyra", Confidence: 0.9},
	}}
	rows := []SiteRow{
		{Name: "Aleppo", Lat: ptr(36.2), Lon: ptr(37.15)},
		{Name: "Palmyra"},
	}

	out, diags := ResolveSites(context.Background(), rows, geo, "sy", discardLogger())

	assert.Empty(t, diags)
	assert.Equal(t, []string{"Palmyra"}, geo.calls, "resolved rows are not geocoded")
	require.True(t, out[1].Resolved())
	assert.Equal(t, 34.55, *out[1].Lat)
	assert.Equal(t, 38.27, *out[1].Lon)
	assert.Nil(t, rows[1].Lat, "input rows are not modified")
}

func TestResolveSites_GeocoderError(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("timeout")}
	rows := []SiteRow{{Name: "Palmyra"}}

	out, diags := ResolveSites(context.Background(), rows, geo, "", discardLogger())

	assert.False(t, out[0].Resolved())
	require.Len(t, diags, 1)
	assert.ErrorIs(t, diags[0], ErrUnresolvedSite)
	assert.Contains(t, diags[0].Error(), "timeout")
}

func TestResolveSites_NoMatchStaysUnresolved(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{}}
	rows := []SiteRow{{Name: "Nowhere"}}

	out, diags := ResolveSites(context.Background(), rows, geo, "", discardLogger())

	assert.False(t, out[0].Resolved())
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Error(), "no geocoding match")
}

func TestResolveSites_InvalidResultStaysUnresolved(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"Palmyra": {Lat: 134.55, Lon: 38.27},
	}}
	rows := []SiteRow{{Name: "Palmyra"}, {Name: "Tadmur", Lat: ptr(math.NaN()), Lon: ptr(38.27)}}

	out, diags := ResolveSites(context.Background(), rows, geo, "", discardLogger())

	assert.False(t, out[0].Resolved())
	assert.Nil(t, out[0].Lat)
	assert.Equal(t, []string{"Palmyra", "Tadmur"}, geo.calls)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.ErrorIs(t, d, ErrUnresolvedSite)
	}
}
