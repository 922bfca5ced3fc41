package models

import (
	"gonum.org/v1/gonum/mat"
)

// Slice represents one 2D cross-section of a volume along one axis
type Slice struct {
	// ID identifies the slice object; a new slice object gets a new ID
	ID int

	// Width and Height are the slice dimensions in pixels
	Width  int
	Height int

	// WidthSpacing and HeightSpacing are the physical pixel sizes in mm
	WidthSpacing  float64
	HeightSpacing float64

	// WMin and HMin are the physical coordinates of the first pixel
	WMin float64
	HMin float64

	// XYBBox is the slice bounding box in XY space as
	// [xmin, xmax, ymin, ymax, zmin, zmax]; element 4 is the in-slice Z
	XYBBox [6]float64

	// Texture holds the raw intensities, 4 interleaved channels per pixel,
	// row-major
	Texture []float32

	// Label holds the raw label colors (0..255) in the same layout as
	// Texture. Nil when the volume has no labelmap.
	Label []float32

	// LabelValues holds one label value per pixel. When nil, channel 0 of
	// Label is the label value.
	LabelValues []float32

	// XYToIJK maps homogeneous in-plane coordinates to volume indices
	XYToIJK *mat.Dense

	// XYToRAS maps homogeneous in-plane coordinates to patient space
	XYToRAS *mat.Dense
}

// PixelCount returns the number of pixels of the slice
func (s *Slice) PixelCount() int {
	return s.Width * s.Height
}

// HasLabel reports whether the slice carries label data
func (s *Slice) HasLabel() bool {
	return s.Label != nil
}
