package icon

import (
	"testing"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBucket_TierEdges(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 12},
		{1, 12},
		{9, 12},
		{10, 8},
		{99, 8},
		{100, 4},
		{999, 4},
		{1000, 0},
		{250000, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.n), "bucket(%d)", tt.n)
	}
}

func TestOptions_Sizing(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 60, opts.MaxClusterRadius())
	assert.Equal(t, 16, opts.Radius(2))
	assert.Equal(t, 34, opts.IconDim(2))
	assert.Equal(t, 20, opts.Radius(50))
	assert.Equal(t, 24, opts.Radius(500))
	assert.Equal(t, 28, opts.Radius(5000))
	assert.Equal(t, 58, opts.IconDim(5000))
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{"defaults", func(*Options) {}, ""},
		{"zero stroke", func(o *Options) { o.StrokeWidth = 0 }, "stroke width"},
		{"rmax too small", func(o *Options) { o.RMax = 20 }, "too small"},
		{"smallest valid rmax", func(o *Options) { o.RMax = 24 }, ""},
		{"bad category field", func(o *Options) { o.CategoryField = "genre" }, "category field"},
		{"bad icon field", func(o *Options) { o.IconField = "" }, "icon field"},
		{"subcategory tally", func(o *Options) { o.CategoryField = domain.FieldSubcategory }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
