package domain

// Tally counts features per distinct value of a field, remembering the order
// in which values were first seen.
type Tally struct {
	keys   []string
	counts map[string]int
	total  int
}

// TallyBy counts features by the selected field.
func TallyBy(features []Feature, field CategoryField) Tally {
	t := Tally{counts: make(map[string]int)}
	for _, f := range features {
		t.add(f.Value(field))
	}
	return t
}

func (t *Tally) add(key string) {
	if _, seen := t.counts[key]; !seen {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
	t.total++
}

// Keys returns the distinct values in first-seen order.
func (t Tally) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Count returns how many features carried key.
func (t Tally) Count(key string) int { return t.counts[key] }

// Len returns the number of distinct values.
func (t Tally) Len() int { return len(t.keys) }

// Total returns the number of features counted.
func (t Tally) Total() int { return t.total }

// Map returns the counts as a plain map.
func (t Tally) Map() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
