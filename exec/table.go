package exec

import "strconv"

// Table is ordered slot storage with a stable name mapping, used for locals,
// globals, memories and functions. A numeric-looking location string indexes
// the slots directly; anything else resolves through the name map.
type Table[V any] struct {
	values []V
	names  map[string]int
}

// NewTable returns an empty table.
func NewTable[V any]() *Table[V] {
	return &Table[V]{names: make(map[string]int)}
}

// Define appends a slot and registers its name when one is given, returning
// the slot index.
func (t *Table[V]) Define(name string, v V) int {
	idx := len(t.values)
	t.values = append(t.values, v)
	if name != "" {
		t.names[name] = idx
	}
	return idx
}

// Get resolves a location and returns its value.
func (t *Table[V]) Get(location string) (V, bool) {
	i, ok := t.resolve(location)
	if !ok {
		var zero V
		return zero, false
	}
	return t.values[i], true
}

// Set resolves a location and overwrites its value, reporting whether the
// location exists.
func (t *Table[V]) Set(location string, v V) bool {
	i, ok := t.resolve(location)
	if !ok {
		return false
	}
	t.values[i] = v
	return true
}

// At returns the slot at a raw index.
func (t *Table[V]) At(i int) (V, bool) {
	if i < 0 || i >= len(t.values) {
		var zero V
		return zero, false
	}
	return t.values[i], true
}

// Len returns the slot count.
func (t *Table[V]) Len() int { return len(t.values) }

// Snapshot returns a copy of the slot sequence.
func (t *Table[V]) Snapshot() []V {
	out := make([]V, len(t.values))
	copy(out, t.values)
	return out
}

func (t *Table[V]) resolve(location string) (int, bool) {
	if n, err := strconv.ParseUint(location, 10, 31); err == nil {
		i := int(n)
		return i, i < len(t.values)
	}
	i, ok := t.names[location]
	return i, ok
}
