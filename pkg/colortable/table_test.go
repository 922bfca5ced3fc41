package colortable

import (
	"errors"
	"strings"
	"testing"
)

// TestTableGet verifies defined and undefined lookups
func TestTableGet(t *testing.T) {
	table := New("test")
	if err := table.Add(1, "red", 1, 0, 0, 1); err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	if err := table.Add(0, "background", 0, 0, 0, 0); err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}

	e, ok := table.Get(1)
	if !ok {
		t.Fatal("Expected entry 1 to be defined")
	}
	if got := e.RGBA8(); got != [4]float64{255, 0, 0, 255} {
		t.Errorf("Expected (255,0,0,255), got %v", got)
	}

	if _, ok := table.Get(255); ok {
		t.Error("Expected index 255 to be undefined")
	}

	if table.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", table.Len())
	}
	keys := table.Keys()
	if keys[0] != 0 || keys[1] != 1 {
		t.Errorf("Expected sorted keys [0 1], got %v", keys)
	}

	var nilTable *Table
	if _, ok := nilTable.Get(0); ok {
		t.Error("Expected lookup on a nil table to be undefined")
	}
}

// TestTableAddRejectsOutOfRange verifies component validation
func TestTableAddRejectsOutOfRange(t *testing.T) {
	table := New("test")
	if err := table.Add(3, "", 255, 0, 0, 1); err == nil {
		t.Error("Expected error for component outside [0,1], got nil")
	}
}

// TestNearest verifies nearest-key lookup on a sparse table
func TestNearest(t *testing.T) {
	table := New("sparse")
	for _, k := range []int{2, 10, 20} {
		if err := table.Add(k, "", 0, 0, 0, 1); err != nil {
			t.Fatalf("Failed to add entry: %v", err)
		}
	}

	cases := map[float64]int{-5: 2, 2: 2, 5.9: 2, 6: 2, 6.1: 10, 16: 20, 99: 20}
	for v, want := range cases {
		e, ok := table.Nearest(v)
		if !ok || e.Index != want {
			t.Errorf("Nearest(%v): expected %d, got %d (ok=%v)", v, want, e.Index, ok)
		}
	}
}

// TestFromPalette verifies the built-in palettes
func TestFromPalette(t *testing.T) {
	for _, p := range []Palette{Grayscale, Categorical, Thermal} {
		table, err := FromPalette(p)
		if err != nil {
			t.Fatalf("Failed to build %s: %v", p, err)
		}
		if table.Len() != 256 {
			t.Errorf("%s: expected 256 entries, got %d", p, table.Len())
		}
		bg, _ := table.Get(0)
		if bg.A != 0 {
			t.Errorf("%s: expected transparent background, got alpha %v", p, bg.A)
		}
	}

	gray, _ := FromPalette(Grayscale)
	e, _ := gray.Get(128)
	if got := e.RGBA8(); got[0] != 128 || got[3] != 255 {
		t.Errorf("Expected gray 128 opaque, got %v", got)
	}

	a, _ := FromPalette(Thermal)
	b, _ := FromPalette(Thermal)
	if a == b {
		t.Error("Expected a fresh table for every call")
	}

	if _, err := FromPalette(Palette(7)); !errors.Is(err, ErrUnknownPalette) {
		t.Errorf("Expected ErrUnknownPalette, got %v", err)
	}
}

// TestFromRows verifies custom table construction
func TestFromRows(t *testing.T) {
	table, err := FromRows("custom", [][]float64{{0, 0, 0, 0, 0}, {1, 1, 0, 0, 1}})
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}
	if table.Len() != 2 || table.Name() != "custom" {
		t.Errorf("Unexpected table %s with %d entries", table.Name(), table.Len())
	}

	if _, err := FromRows("bad", [][]float64{{1, 1, 0}}); err == nil {
		t.Error("Expected error for short row, got nil")
	}
	if _, err := FromRows("bad", [][]float64{{1.5, 1, 0, 0, 1}}); err == nil {
		t.Error("Expected error for fractional index, got nil")
	}
}

// TestParsePalette verifies palette lookup by name
func TestParsePalette(t *testing.T) {
	for _, p := range []Palette{Grayscale, Categorical, Thermal} {
		got, err := ParsePalette(strings.ToUpper(p.String()))
		if err != nil || got != p {
			t.Errorf("ParsePalette(%s): expected %v, got %v (%v)", p, p, got, err)
		}
	}
	if _, err := ParsePalette("rainbow"); !errors.Is(err, ErrUnknownPalette) {
		t.Errorf("Expected ErrUnknownPalette, got %v", err)
	}
}
