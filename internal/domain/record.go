package domain

import (
	"errors"
	"fmt"
	"strings"
)

// VariousSite marks records that span several locations.
const VariousSite = "Various"

// Record is one row from the record source. Cells keep source column order.
type Record struct {
	Row   int
	Cells []string
}

// Cell returns the trimmed cell at index i and whether the row has it.
func (r Record) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.Cells) {
		return "", false
	}
	return strings.TrimSpace(r.Cells[i]), true
}

// ColumnMapping selects which record columns hold the fields the builder reads.
type ColumnMapping struct {
	Site        int
	Category    int
	Subcategory int
}

// DefaultColumnMapping matches the sheet layout: an identifier column first,
// then site, category, and subcategory.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{Site: 1, Category: 2, Subcategory: 3}
}

// Validate rejects negative column indexes.
func (m ColumnMapping) Validate() error {
	if m.Site < 0 || m.Category < 0 || m.Subcategory < 0 {
		return fmt.Errorf("column mapping %+v: indexes must be non-negative", m)
	}
	return nil
}

// CategoryField names the feature attribute used for tallying and styling.
type CategoryField string

const (
	FieldCategory    CategoryField = "category"
	FieldSubcategory CategoryField = "subcategory"
)

// ErrUnknownField is returned for a field name other than category or subcategory.
var ErrUnknownField = errors.New("unknown category field")

// ParseCategoryField validates a field name from configuration.
func ParseCategoryField(s string) (CategoryField, error) {
	switch f := CategoryField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldCategory, FieldSubcategory:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Geo is a WGS-84 latitude/longitude pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Feature is a record placed on the map. ID is its index in the collection.
type Feature struct {
	ID          int    `json:"id"`
	Geo         Geo    `json:"geo"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Value returns the attribute selected by field. Unknown fields yield "".
func (f Feature) Value(field CategoryField) string {
	switch field {
	case FieldCategory:
		return f.Category
	case FieldSubcategory:
		return f.Subcategory
	default:
		return ""
	}
}
