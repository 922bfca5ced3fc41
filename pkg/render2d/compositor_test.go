package render2d

import (
	"errors"
	"testing"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

// grayTexture returns an RGBA texture with every channel but alpha set to
// the given values.
func grayTexture(values ...float32) []float32 {
	out := make([]float32, 0, 4*len(values))
	for _, v := range values {
		out = append(out, v, v, v, 255)
	}
	return out
}

func pixelAt(buf []uint8, p int) [4]uint8 {
	return [4]uint8{buf[4*p], buf[4*p+1], buf[4*p+2], buf[4*p+3]}
}

func TestCompositeUniformSagittal(t *testing.T) {
	values := make([]float32, 16)
	for i := range values {
		values[i] = 128
	}
	s := &models.Slice{Width: 4, Height: 4, Texture: grayTexture(values...)}

	var c Compositor
	err := c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 0, High: 255},
		LowerThreshold: 0,
		UpperThreshold: 255,
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	expected := [4]uint8{128, 128, 128, 255}
	for p := 0; p < 16; p++ {
		if got := pixelAt(c.Image().Pix, p); got != expected {
			t.Errorf("Pixel %d: expected %v, got %v", p, expected, got)
		}
		if got := pixelAt(c.Label().Pix, p); got != [4]uint8{} {
			t.Errorf("Pixel %d: expected transparent label, got %v", p, got)
		}
	}
}

func TestCompositeOrientationPlacement(t *testing.T) {
	// 2x2 texture holding 10, 20 / 30, 40
	s := &models.Slice{Width: 2, Height: 2, Texture: grayTexture(10, 20, 30, 40)}
	testCases := []struct {
		o        Orientation
		expected [4]uint8 // first channel of the four buffer pixels
	}{
		{OrientationX, [4]uint8{10, 20, 30, 40}},
		{OrientationY, [4]uint8{20, 10, 40, 30}},
		{OrientationZ, [4]uint8{40, 30, 20, 10}},
	}

	for _, tc := range testCases {
		var c Compositor
		err := c.Composite(CompositeInput{
			Slice:          s,
			Orientation:    tc.o,
			Window:         Window{Low: 0, High: 255},
			UpperThreshold: 255,
		})
		if err != nil {
			t.Fatalf("%v: Composite failed: %v", tc.o, err)
		}
		var got [4]uint8
		for p := range got {
			got[p] = c.Image().Pix[4*p]
		}
		if got != tc.expected {
			t.Errorf("%v: expected %v, got %v", tc.o, tc.expected, got)
		}
	}
}

func TestCompositeWindowBands(t *testing.T) {
	s := &models.Slice{Width: 3, Height: 1, Texture: grayTexture(5, 15, 25)}
	var c Compositor
	err := c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 10, High: 20},
		UpperThreshold: 100,
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	expected := [][4]uint8{{0, 0, 0, 0}, {128, 128, 128, 255}, {255, 255, 255, 255}}
	for p, e := range expected {
		if got := pixelAt(c.Image().Pix, p); got != e {
			t.Errorf("Pixel %d: expected %v, got %v", p, e, got)
		}
	}
}

func TestCompositeColorTable(t *testing.T) {
	// only indices 0 and 1 exist; anything clamped to 255 is transparent
	table, err := colortable.FromRows("two", [][]float64{
		{0, 0, 0, 1, 1},
		{1, 1, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("Failed to build colortable: %v", err)
	}

	s := &models.Slice{Width: 3, Height: 1, Texture: grayTexture(0, 10, 20)}
	var c Compositor
	err = c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 0, High: 10},
		UpperThreshold: 100,
		ColorTable:     table,
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	expected := [][4]uint8{{0, 0, 255, 255}, {0, 0, 0, 0}, {0, 0, 0, 0}}
	for p, e := range expected {
		if got := pixelAt(c.Image().Pix, p); got != e {
			t.Errorf("Pixel %d: expected %v, got %v", p, e, got)
		}
	}
}

func TestCompositeColorTableBelowWindow(t *testing.T) {
	// index 0 is opaque blue, so a lookup below the window would show it
	table, err := colortable.FromRows("blue-red", [][]float64{
		{0, 0, 0, 1, 1},
		{128, 1, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("Failed to build colortable: %v", err)
	}

	s := &models.Slice{Width: 3, Height: 1, Texture: grayTexture(-50, 0, 128)}
	var c Compositor
	err = c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 0, High: 255},
		LowerThreshold: -100,
		UpperThreshold: 255,
		ColorTable:     table,
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	expected := [][4]uint8{{0, 0, 0, 0}, {0, 0, 255, 255}, {255, 0, 0, 255}}
	for p, e := range expected {
		if got := pixelAt(c.Image().Pix, p); got != e {
			t.Errorf("Pixel %d: expected %v, got %v", p, e, got)
		}
	}
}

func labelTable(t *testing.T) *colortable.Table {
	t.Helper()
	table, err := colortable.FromRows("labels", [][]float64{
		{1, 1, 0, 0, 1},
		{2, 0, 1, 0, 1},
	})
	if err != nil {
		t.Fatalf("Failed to build colortable: %v", err)
	}
	return table
}

func labelResolver(table *colortable.Table, showOnly [4]float32) *LabelResolver {
	return &LabelResolver{
		Table:      table,
		Normalizer: Normalizer{Window: Window{Low: 0, High: 255}},
		ShowOnly:   showOnly,
	}
}

var showAll = [4]float32{models.ShowAll, models.ShowAll, models.ShowAll, models.ShowAll}

func TestCompositeLabels(t *testing.T) {
	table := labelTable(t)
	s := &models.Slice{
		Width:       3,
		Height:      1,
		Texture:     grayTexture(100, 100, 10),
		Label:       []float32{255, 0, 0, 255, 0, 255, 0, 255, 255, 0, 0, 255},
		LabelValues: []float32{1, 2, 1},
	}

	var c Compositor
	err := c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 0, High: 255},
		LowerThreshold: 50,
		UpperThreshold: 255,
		Label:          labelResolver(table, showAll),
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	expected := [][4]uint8{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 0, 0}}
	for p, e := range expected {
		if got := pixelAt(c.Label().Pix, p); got != e {
			t.Errorf("Label pixel %d: expected %v, got %v", p, e, got)
		}
	}
	// below the lower threshold the base pixel is suppressed too
	if got := pixelAt(c.Image().Pix, 2); got != [4]uint8{} {
		t.Errorf("Expected thresholded pixel to be transparent, got %v", got)
	}

	// show only red
	err = c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationX,
		Window:         Window{Low: 0, High: 255},
		UpperThreshold: 255,
		Label:          labelResolver(table, [4]float32{255, 0, 0, 255}),
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	expected = [][4]uint8{{255, 0, 0, 255}, {0, 0, 0, 0}, {255, 0, 0, 255}}
	for p, e := range expected {
		if got := pixelAt(c.Label().Pix, p); got != e {
			t.Errorf("Show-only label pixel %d: expected %v, got %v", p, e, got)
		}
	}
}

func TestCompositeLabelValueFromRawChannel(t *testing.T) {
	table := labelTable(t)
	s := &models.Slice{
		Width:   1,
		Height:  1,
		Texture: grayTexture(100),
		Label:   []float32{2, 0, 0, 0},
	}
	var c Compositor
	err := c.Composite(CompositeInput{
		Slice:          s,
		Orientation:    OrientationZ,
		Window:         Window{Low: 0, High: 255},
		UpperThreshold: 255,
		Label:          labelResolver(table, showAll),
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if got := pixelAt(c.Label().Pix, 0); got != [4]uint8{0, 255, 0, 255} {
		t.Errorf("Expected label 2 to be green, got %v", got)
	}
}

func TestCompositeErrors(t *testing.T) {
	var c Compositor
	if err := c.Composite(CompositeInput{}); !errors.Is(err, ErrNoSlice) {
		t.Errorf("Expected ErrNoSlice, got %v", err)
	}

	short := &models.Slice{Width: 2, Height: 2, Texture: grayTexture(1, 2, 3)}
	if err := c.Composite(CompositeInput{Slice: short}); !errors.Is(err, ErrBufferSize) {
		t.Errorf("Expected ErrBufferSize, got %v", err)
	}

	s := &models.Slice{Width: 1, Height: 1, Texture: grayTexture(1), Label: []float32{1, 0, 0, 0}}
	in := CompositeInput{Slice: s, Label: labelResolver(nil, showAll)}
	if err := c.Composite(in); !errors.Is(err, ErrNoLabelColorTable) {
		t.Errorf("Expected ErrNoLabelColorTable, got %v", err)
	}
	if c.Image() != nil {
		t.Errorf("Expected failed composites to leave the buffers untouched")
	}
}

func TestLabelResolver(t *testing.T) {
	r := labelResolver(labelTable(t), showAll)
	if !r.ShowsAll() {
		t.Errorf("Expected the sentinel to show all labels")
	}
	if got := r.Resolve(2, []float32{1, 2, 3, 4}); got != (Color{0, 255, 0, 255}) {
		t.Errorf("Expected green, got %v", got)
	}
	if got := r.Resolve(5, []float32{1, 2, 3, 4}); got != transparent {
		t.Errorf("Expected unknown label to be transparent, got %v", got)
	}

	r.ShowOnly = [4]float32{0, 255, 0, 255}
	if r.Matches([]float32{0, 255, 0, 254}) {
		t.Errorf("Expected match to compare all four components")
	}
	if got := r.Resolve(2, []float32{0, 255, 0, 255}); got != (Color{0, 255, 0, 255}) {
		t.Errorf("Expected matching label to be shown, got %v", got)
	}
	if got := r.Resolve(1, []float32{255, 0, 0, 255}); got != transparent {
		t.Errorf("Expected filtered label to be hidden, got %v", got)
	}
}

func TestNewLabelResolver(t *testing.T) {
	lm := models.NewLabelmap(1, 1, 1)
	lm.ColorTable = labelTable(t)
	lm.WindowHigh = 255
	if err := lm.ShowOnlyLabelValue(1); err != nil {
		t.Fatalf("ShowOnlyLabelValue failed: %v", err)
	}

	r := NewLabelResolver(lm)
	if r.ShowOnly != [4]float32{255, 0, 0, 255} {
		t.Errorf("Expected red show-only color, got %v", r.ShowOnly)
	}
	if r.Normalizer.Window.High != 255 {
		t.Errorf("Expected label window to be captured, got %v", r.Normalizer.Window)
	}
}
