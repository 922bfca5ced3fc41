// Package colortable provides the discrete index-to-color palettes used for
// pseudo-coloring volumes and label maps.
package colortable

import (
	"fmt"
	"math"
	"sort"
)

// Entry is one row of a colortable. Color components are in [0,1].
type Entry struct {
	Index int
	Label string
	R     float64
	G     float64
	B     float64
	A     float64
}

// RGBA8 returns the entry color scaled to the [0,255] display range.
func (e Entry) RGBA8() [4]float64 {
	return [4]float64{255 * e.R, 255 * e.G, 255 * e.B, 255 * e.A}
}

// Table is an ordered mapping from integer index to an RGBA color.
// Keys may be contiguous or sparse.
type Table struct {
	name    string
	entries map[int]Entry
	keys    []int
}

// New creates an empty colortable. The name identifies where the table came
// from (a file name or a built-in palette) and is only used for display.
func New(name string) *Table {
	return &Table{
		name:    name,
		entries: make(map[int]Entry),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Add inserts or replaces the entry at index. Components must be in [0,1].
func (t *Table) Add(index int, label string, r, g, b, a float64) error {
	for _, c := range []float64{r, g, b, a} {
		if c < 0 || c > 1 || math.IsNaN(c) {
			return fmt.Errorf("colortable %s: component %v of index %d outside [0,1]", t.name, c, index)
		}
	}

	if _, ok := t.entries[index]; !ok {
		i := sort.SearchInts(t.keys, index)
		t.keys = append(t.keys, 0)
		copy(t.keys[i+1:], t.keys[i:])
		t.keys[i] = index
	}
	t.entries[index] = Entry{Index: index, Label: label, R: r, G: g, B: b, A: a}
	return nil
}

// Get returns the entry at index. The second result is false when the index
// is not defined; callers treat that as transparent black.
func (t *Table) Get(index int) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[index]
	return e, ok
}

// Len returns the number of defined entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the defined indices in ascending order.
func (t *Table) Keys() []int {
	out := make([]int, len(t.keys))
	copy(out, t.keys)
	return out
}

// Nearest returns the entry whose index is closest to v (ties go to the
// lower index). It is used for the navigator read-out where the value under
// the pointer is not necessarily integral.
func (t *Table) Nearest(v float64) (Entry, bool) {
	if t.Len() == 0 || math.IsNaN(v) {
		return Entry{}, false
	}
	i := sort.SearchFloat64s(keysAsFloats(t.keys), v)
	switch {
	case i == 0:
		return t.entries[t.keys[0]], true
	case i == len(t.keys):
		return t.entries[t.keys[len(t.keys)-1]], true
	}
	lo, hi := t.keys[i-1], t.keys[i]
	if v-float64(lo) <= float64(hi)-v {
		return t.entries[lo], true
	}
	return t.entries[hi], true
}

func keysAsFloats(keys []int) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = float64(k)
	}
	return out
}
