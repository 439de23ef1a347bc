// Package icon builds the marker and cluster icons the host map renders.
//
// Cluster icons are annular pie charts: one wedge per category among the
// cluster's members, sized by count, with the member count as a centered
// label. The outer radius shrinks in four tiers as clusters get smaller so
// the label stays legible:
//
//	n < 10    r = RMax - 2·StrokeWidth - 12
//	n < 100   r = RMax - 2·StrokeWidth - 8
//	n < 1000  r = RMax - 2·StrokeWidth - 4
//	else      r = RMax - 2·StrokeWidth
//
// Wedges and single markers are styled by the category's position in the
// dataset's known category list ("category-<index>"), never by the raw value.
package icon

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

// ringWidth is the thickness of the pie ring; the inner radius is r - ringWidth.
const ringWidth = 10

// Options are the recognized icon settings.
type Options struct {
	// RMax is the base cluster radius in pixels. The host clusters markers
	// within 2·RMax of each other.
	RMax int
	// StrokeWidth is the wedge stroke in pixels.
	StrokeWidth int
	// CategoryField drives cluster tallies and marker colors.
	CategoryField domain.CategoryField
	// IconField is carried on single markers for host-side glyph selection.
	IconField domain.CategoryField
}

// DefaultOptions returns RMax 30, StrokeWidth 1, tally by category and
// icons by subcategory.
func DefaultOptions() Options {
	return Options{
		RMax:          30,
		StrokeWidth:   1,
		CategoryField: domain.FieldCategory,
		IconField:     domain.FieldSubcategory,
	}
}

// Validate checks that the smallest icon tier still has a non-negative inner
// radius and that both fields are known.
func (o Options) Validate() error {
	if o.StrokeWidth < 1 {
		return errors.New("stroke width must be at least 1")
	}
	if inner := o.RMax - 2*o.StrokeWidth - Bucket(0) - ringWidth; inner < 0 {
		return fmt.Errorf("rmax %d too small for stroke width %d: smallest icon would have inner radius %d",
			o.RMax, o.StrokeWidth, inner)
	}
	if _, err := domain.ParseCategoryField(string(o.CategoryField)); err != nil {
		return fmt.Errorf("category field: %w", err)
	}
	if _, err := domain.ParseCategoryField(string(o.IconField)); err != nil {
		return fmt.Errorf("icon field: %w", err)
	}
	return nil
}

// MaxClusterRadius is the pixel radius the host map clusters within.
func (o Options) MaxClusterRadius() int {
	return 2 * o.RMax
}

// Bucket is the radius reduction for a cluster of n members.
func Bucket(n int) int {
	switch {
	case n < 10:
		return 12
	case n < 100:
		return 8
	case n < 1000:
		return 4
	default:
		return 0
	}
}

// Radius is the outer pie radius for a cluster of n members.
func (o Options) Radius(n int) int {
	return o.RMax - 2*o.StrokeWidth - Bucket(n)
}

// IconDim is the square pixel size reported to the host for a cluster of n.
func (o Options) IconDim(n int) int {
	return 2 * (o.Radius(n) + o.StrokeWidth)
}
