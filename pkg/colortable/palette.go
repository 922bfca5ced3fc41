package colortable

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownPalette is returned for palette ids outside the built-in set.
var ErrUnknownPalette = errors.New("unknown palette")

// Palette selects one of the built-in colortables.
type Palette int

const (
	// Grayscale maps index i to gray level i. Index 0 is transparent.
	Grayscale Palette = iota
	// Categorical is a repeating set of distinct colors for label display.
	Categorical
	// Thermal is a 256 color blue-to-red ramp.
	Thermal
)

// String returns the palette name.
func (p Palette) String() string {
	switch p {
	case Grayscale:
		return "grayscale"
	case Categorical:
		return "categorical"
	case Thermal:
		return "thermal"
	}
	return fmt.Sprintf("palette(%d)", int(p))
}

// ParsePalette returns the palette with the given name, ignoring case.
func ParsePalette(name string) (Palette, error) {
	for _, p := range []Palette{Grayscale, Categorical, Thermal} {
		if strings.EqualFold(name, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
}

// paletteSize is the number of entries of every built-in palette.
const paletteSize = 256

// categoricalColors holds the distinct label colors, cycled to fill the
// categorical palette.
var categoricalColors = [][3]uint8{
	{100, 100, 130}, {200, 200, 235}, {250, 250, 210}, {244, 214, 49},
	{0, 151, 206}, {216, 101, 79}, {183, 156, 220}, {183, 214, 211},
	{152, 189, 207}, {111, 184, 210}, {178, 212, 242}, {192, 104, 88},
	{177, 122, 101}, {241, 214, 145}, {68, 172, 100}, {111, 197, 131},
	{85, 188, 255}, {0, 145, 30}, {214, 230, 130}, {78, 63, 0},
	{218, 255, 255}, {170, 250, 250}, {144, 238, 144}, {140, 224, 228},
	{188, 65, 28}, {216, 191, 216}, {145, 60, 66}, {150, 98, 83},
	{250, 250, 225}, {200, 200, 215}, {68, 131, 98}, {128, 174, 128},
	{83, 146, 164}, {162, 115, 105}, {141, 93, 137}, {182, 166, 110},
	{188, 135, 166}, {154, 150, 201}, {177, 140, 190}, {30, 111, 85},
	{210, 157, 166}, {48, 129, 126}, {98, 153, 112}, {69, 110, 53},
	{166, 113, 137}, {122, 101, 38}, {253, 135, 192}, {145, 92, 109},
	{46, 101, 131}, {0, 108, 112}, {127, 150, 88}, {159, 116, 163},
	{125, 102, 154}, {106, 174, 155}, {154, 146, 83}, {126, 126, 55},
	{201, 160, 133}, {0, 116, 0}, {129, 78, 0}, {0, 0, 255},
}

// FromPalette builds a fresh table for one of the built-in palettes.
// Every call returns a new table, so switching palettes always changes the
// table identity.
func FromPalette(p Palette) (*Table, error) {
	t := New(p.String())
	// index 0 is the transparent background in every palette
	if err := t.Add(0, "background", 0, 0, 0, 0); err != nil {
		return nil, err
	}

	for i := 1; i < paletteSize; i++ {
		var rgb [3]float64
		switch p {
		case Grayscale:
			g := float64(i) / 255
			rgb = [3]float64{g, g, g}
		case Categorical:
			c := categoricalColors[(i-1)%len(categoricalColors)]
			rgb = [3]float64{float64(c[0]) / 255, float64(c[1]) / 255, float64(c[2]) / 255}
		case Thermal:
			rgb = thermal(float64(i-1) / float64(paletteSize-2))
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnknownPalette, int(p))
		}
		if err := t.Add(i, fmt.Sprintf("%d", i), rgb[0], rgb[1], rgb[2], 1); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// thermal evaluates the piecewise linear dark-blue, cyan, yellow, dark-red
// ramp at v in [0,1].
func thermal(v float64) [3]float64 {
	ramp := func(x float64) float64 {
		return math.Max(0, math.Min(1, 1.5-math.Abs(x)))
	}
	return [3]float64{ramp(4*v - 3), ramp(4*v - 2), ramp(4*v - 1)}
}

// FromRows builds a table from [index, r, g, b, a] rows with components in
// [0,1], the layout custom colortables use in the configuration file.
func FromRows(name string, rows [][]float64) (*Table, error) {
	t := New(name)
	for n, row := range rows {
		if len(row) != 5 {
			return nil, fmt.Errorf("colortable %s: row %d has %d values, want 5", name, n, len(row))
		}
		if row[0] != math.Trunc(row[0]) {
			return nil, fmt.Errorf("colortable %s: row %d index %v is not an integer", name, n, row[0])
		}
		if err := t.Add(int(row[0]), "", row[1], row[2], row[3], row[4]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
