package render2d

import (
	"fmt"
	"image"
	"math"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

// CompositeInput is everything one scan of the compositor reads.
type CompositeInput struct {
	Slice       *models.Slice
	Orientation Orientation

	Window         Window
	LowerThreshold float64
	UpperThreshold float64
	Parametric     bool
	ColorTable     *colortable.Table

	// Label is nil when the slice has no label data.
	Label *LabelResolver
}

// Compositor owns the two off-screen buffers: the base image and the label
// overlay. Both always have the current slice dimensions.
type Compositor struct {
	image *image.RGBA
	label *image.RGBA
}

// Resize reallocates both buffers when the dimensions change. It reports
// whether a reallocation happened.
func (c *Compositor) Resize(width, height int) bool {
	if c.image != nil && c.image.Rect.Dx() == width && c.image.Rect.Dy() == height {
		return false
	}
	c.image = image.NewRGBA(image.Rect(0, 0, width, height))
	c.label = image.NewRGBA(image.Rect(0, 0, width, height))
	return true
}

// Image returns the base image buffer.
func (c *Compositor) Image() *image.RGBA {
	return c.image
}

// Label returns the label overlay buffer.
func (c *Compositor) Label() *image.RGBA {
	return c.label
}

// Composite scans the slice once and overwrites both buffers. It fails
// before touching the buffers when the input is inconsistent; individual
// pixels never fail.
func (c *Compositor) Composite(in CompositeInput) error {
	s := in.Slice
	if s == nil {
		return fmt.Errorf("composite: %w", ErrNoSlice)
	}
	length := 4 * s.PixelCount()
	if len(s.Texture) < length {
		return fmt.Errorf("composite: %w: texture has %d values, want %d", ErrBufferSize, len(s.Texture), length)
	}
	if in.Label != nil {
		if len(s.Label) < length {
			return fmt.Errorf("composite: %w: label has %d values, want %d", ErrBufferSize, len(s.Label), length)
		}
		if s.LabelValues != nil && len(s.LabelValues) < s.PixelCount() {
			return fmt.Errorf("composite: %w: label values have %d entries, want %d", ErrBufferSize, len(s.LabelValues), s.PixelCount())
		}
		if in.Label.Table == nil {
			return fmt.Errorf("composite: %w", ErrNoLabelColorTable)
		}
	}

	c.Resize(s.Width, s.Height)
	pixels := c.image.Pix
	labels := c.label.Pix

	volume := Normalizer{Window: in.Window, Parametric: in.Parametric}
	numColors := in.ColorTable.Len()

	for src := 0; src < length; src += 4 {
		texel := s.Texture[src : src+4]
		intensity := float64(texel[0])

		var base Color
		if in.ColorTable != nil {
			idx, ok := volume.VolumeIndex(intensity, numColors)
			base = lookup(in.ColorTable, idx, ok)
		} else {
			base = passThrough(texel, in.Window)
		}

		var color, label Color
		if intensity >= in.LowerThreshold && intensity <= in.UpperThreshold {
			color = base
			if in.Label != nil {
				raw := s.Label[src : src+4]
				value := float64(raw[0])
				if s.LabelValues != nil {
					value = float64(s.LabelValues[src/4])
				}
				label = in.Label.Resolve(value, raw)
			}
		}

		dst := WriteIndex(in.Orientation, s.Width, length, src)
		putPixel(pixels[dst:dst+4], color)
		putPixel(labels[dst:dst+4], label)
	}
	return nil
}

// passThrough windows all four channels independently. The band is decided
// by the first channel; inside the window alpha is opaque.
func passThrough(texel []float32, w Window) Color {
	switch w.Classify(float64(texel[0])) {
	case Below:
		return Color{0, 0, 0, 0}
	case Above:
		return Color{255, 255, 255, 255}
	}
	return Color{
		LinearChannel(float64(texel[0]), w),
		LinearChannel(float64(texel[1]), w),
		LinearChannel(float64(texel[2]), w),
		255,
	}
}

func putPixel(dst []uint8, c Color) {
	dst[0] = clampByte(c[0])
	dst[1] = clampByte(c[1])
	dst[2] = clampByte(c[2])
	dst[3] = clampByte(c[3])
}

// clampByte quantizes like a clamped byte array: NaN becomes 0, values are
// clamped to [0,255] and rounded half to even.
func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}
