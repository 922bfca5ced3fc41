package render2d

import (
	"fmt"
	"image/color"
	"strings"

	"sliceview/internal/models"
)

// Orientation is the slicing axis of a 2D renderer.
type Orientation int

const (
	// OrientationNone means no orientation has been set yet.
	OrientationNone Orientation = iota
	// OrientationX is sagittal.
	OrientationX
	// OrientationY is coronal.
	OrientationY
	// OrientationZ is axial.
	OrientationZ
)

// ParseOrientation accepts x, y, z, sagittal, coronal or axial in any case.
func ParseOrientation(name string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "X", "SAGITTAL":
		return OrientationX, nil
	case "Y", "CORONAL":
		return OrientationY, nil
	case "Z", "AXIAL":
		return OrientationZ, nil
	}
	return OrientationNone, fmt.Errorf("%w: %q", ErrInvalidOrientation, name)
}

// String returns "X", "Y", "Z" or "" for OrientationNone.
func (o Orientation) String() string {
	switch o {
	case OrientationX:
		return "X"
	case OrientationY:
		return "Y"
	case OrientationZ:
		return "Z"
	}
	return ""
}

// Axis returns the volume axis sliced by the orientation.
func (o Orientation) Axis() int {
	switch o {
	case OrientationX:
		return models.AxisX
	case OrientationY:
		return models.AxisY
	}
	return models.AxisZ
}

// navigatorColors returns the crosshair colors for the vertical and the
// horizontal guide line.
func (o Orientation) navigatorColors() (color.NRGBA, color.NRGBA) {
	const a = 77 // 0.3 opacity
	red := color.NRGBA{R: 255, A: a}
	green := color.NRGBA{G: 255, A: a}
	blue := color.NRGBA{B: 255, A: a}
	switch o {
	case OrientationX:
		return green, blue
	case OrientationY:
		return red, blue
	}
	return red, green
}

// WriteIndex maps the byte offset of a source pixel (its R channel) in a
// row-major RGBA buffer of the given width and total length to the offset
// of the destination pixel's R channel.
//
// X keeps the layout, Y mirrors the columns of every row and Z reverses
// the whole buffer pixel-wise.
func WriteIndex(o Orientation, width, length, src int) int {
	switch o {
	case OrientationY:
		row := src / (width * 4)
		col := src - row*width*4
		return row*width*4 + (4*(width-1) - col)
	case OrientationZ:
		// the alpha channel lands on length-1-src, the other channels are
		// written below it
		return (length - 1 - src) - 3
	}
	return src
}

// SourceIndex inverts WriteIndex.
func SourceIndex(o Orientation, width, length, dst int) int {
	// both flips are involutions
	return WriteIndex(o, width, length, dst)
}
