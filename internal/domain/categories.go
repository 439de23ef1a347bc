package domain

// Unclassified is the style index for values outside the known category list.
const Unclassified = -1

// KnownCategories is the ordered list of distinct styling values for one
// dataset. Version identifies the load that produced it.
type KnownCategories struct {
	field   CategoryField
	version uint64
	values  []string
	index   map[string]int
}

// NewKnownCategories collects the distinct values of field in first-seen order.
func NewKnownCategories(c FeatureCollection, field CategoryField, version uint64) KnownCategories {
	k := KnownCategories{field: field, version: version, index: make(map[string]int)}
	for _, f := range c.features {
		v := f.Value(field)
		if _, ok := k.index[v]; ok {
			continue
		}
		k.index[v] = len(k.values)
		k.values = append(k.values, v)
	}
	return k
}

// Index returns the position of value, or Unclassified.
func (k KnownCategories) Index(value string) int {
	if i, ok := k.index[value]; ok {
		return i
	}
	return Unclassified
}

// Values returns the categories in order.
func (k KnownCategories) Values() []string {
	out := make([]string, len(k.values))
	copy(out, k.values)
	return out
}

// Len returns the number of distinct categories.
func (k KnownCategories) Len() int { return len(k.values) }

// Field returns the feature attribute the categories were read from.
func (k KnownCategories) Field() CategoryField { return k.field }

// Version returns the dataset version the list was computed for.
func (k KnownCategories) Version() uint64 { return k.version }
