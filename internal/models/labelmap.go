package models

import (
	"errors"
	"fmt"
	"math"

	"sliceview/pkg/colortable"
)

// ShowAll is the alpha component of the show-only color that means every
// label is displayed.
const ShowAll float32 = -255

var (
	// ErrLabelIDSize is returned when a label-ID array does not match the
	// voxel count.
	ErrLabelIDSize = errors.New("label ID array not of the same size as labelmap")

	// ErrNoColorTable is returned when a label value has to be converted to
	// a color but no colortable is assigned.
	ErrNoColorTable = errors.New("no colortable assigned")

	// ErrLabelOutOfRange is returned for label IDs above the maximum ID or
	// label values missing from the colortable.
	ErrLabelOutOfRange = errors.New("label out of range")
)

// Labelmap is a per-voxel label overlay parallel to a Volume.
//
// All setters that change what is displayed bump Revision, which the 2D
// renderer's slice cache compares to decide on a redraw.
type Labelmap struct {
	// Data holds the label value per voxel, same layout as Volume.Data
	Data []float64

	// Width, Height and Depth are the voxel counts along I, J and K
	Width  int
	Height int
	Depth  int

	// Min, Max, WindowLow and WindowHigh drive label normalization
	Min        float64
	Max        float64
	WindowLow  float64
	WindowHigh float64

	// ParamMin and ParamMax are the inner bounds of the parametric ranges
	ParamMin float64
	ParamMax float64

	// Parametric selects signed normalization for colortable lookup
	Parametric bool

	// ColorTable maps label values to colors
	ColorTable *colortable.Table

	// Opacity is applied when the overlay is composed on the canvas
	Opacity float64

	// Visible toggles the overlay on the canvas
	Visible bool

	// File is the file the labelmap is loaded from, if any
	File *File

	// IJK is the nested [k][j][i] view of Data used for value read-out
	IJK [][][]float64

	showOnlyColor [4]float32
	showOnlyLabel []int
	labelIDs      [][][]float64
	labelIDsMax   float64
	revision      uint64
}

// NewLabelmap creates a visible, fully opaque labelmap showing all labels.
func NewLabelmap(width, height, depth int) *Labelmap {
	return &Labelmap{
		Width:         width,
		Height:        height,
		Depth:         depth,
		Opacity:       1,
		Visible:       true,
		showOnlyColor: [4]float32{ShowAll, ShowAll, ShowAll, ShowAll},
		labelIDsMax:   math.Inf(-1),
	}
}

// VoxelCount returns the number of voxels
func (l *Labelmap) VoxelCount() int {
	return l.Width * l.Height * l.Depth
}

// Revision increases every time a display-relevant setter runs.
func (l *Labelmap) Revision() uint64 {
	return l.revision
}

// ValueAt returns the label value at (i, j, k) from the nested view.
func (l *Labelmap) ValueAt(i, j, k int) (float64, bool) {
	return nestedAt(l.IJK, i, j, k)
}

// SetLabelIDs assigns the cluster ID of every voxel. The flat array must
// have exactly one element per voxel, ordered k-major then j then i; it is
// stored reshaped to [k][j][i]. NaN entries are ignored when computing the
// maximum ID. Bumps Revision.
func (l *Labelmap) SetLabelIDs(ids []float64) error {
	if len(ids) != l.VoxelCount() {
		return fmt.Errorf("%w: got %d, want %d", ErrLabelIDSize, len(ids), l.VoxelCount())
	}

	maxID := math.Inf(-1)
	for _, id := range ids {
		if !math.IsNaN(id) {
			maxID = math.Max(maxID, id)
		}
	}

	l.labelIDs = Reshape(ids, l.Width, l.Height, l.Depth)
	l.labelIDsMax = maxID
	l.revision++
	return nil
}

// LabelIDs returns the nested [k][j][i] label-ID view, or nil if unset.
func (l *Labelmap) LabelIDs() [][][]float64 {
	return l.labelIDs
}

// LabelIDsMax returns the largest assigned label ID (-Inf if unset).
func (l *Labelmap) LabelIDsMax() float64 {
	return l.labelIDsMax
}

// ShowOnlyColor returns the show-only filter. An alpha of ShowAll means all
// labels are shown; otherwise only pixels whose raw label color matches the
// four components exactly.
func (l *Labelmap) ShowOnlyColor() [4]float32 {
	return l.showOnlyColor
}

// ShowsAll reports whether the show-only filter is the show-all sentinel.
func (l *Labelmap) ShowsAll() bool {
	return l.showOnlyColor[3] == ShowAll
}

// SetShowOnlyColor restricts the overlay to one RGBA color with components
// in [0,1]. Passing nil shows all labels. Components are stored as
// floor(c*255). Bumps Revision.
func (l *Labelmap) SetShowOnlyColor(rgba *[4]float64) {
	c := [4]float64{-1, -1, -1, -1}
	if rgba != nil {
		c = *rgba
	}
	for i := range c {
		l.showOnlyColor[i] = float32(math.Floor(c[i] * 255))
	}
	l.revision++
}

// ShowOnlyLabelValue restricts the overlay to the color of a label value,
// looked up in the colortable. Bumps Revision.
func (l *Labelmap) ShowOnlyLabelValue(value int) error {
	if l.ColorTable == nil {
		return ErrNoColorTable
	}
	e, ok := l.ColorTable.Get(value)
	if !ok {
		return fmt.Errorf("%w: value %d not in colortable %s", ErrLabelOutOfRange, value, l.ColorTable.Name())
	}
	l.SetShowOnlyColor(&[4]float64{e.R, e.G, e.B, e.A})
	return nil
}

// AddShowOnlyLabel appends a cluster ID to the show-only label list.
// IDs above LabelIDsMax are rejected. Bumps Revision.
func (l *Labelmap) AddShowOnlyLabel(id int) error {
	if float64(id) > l.labelIDsMax {
		return fmt.Errorf("%w: cluster ID %d above %v", ErrLabelOutOfRange, id, l.labelIDsMax)
	}
	l.showOnlyLabel = append(l.showOnlyLabel, id)
	l.revision++
	return nil
}

// ShowOnlyLabels returns the accepted cluster IDs.
func (l *Labelmap) ShowOnlyLabels() []int {
	out := make([]int, len(l.showOnlyLabel))
	copy(out, l.showOnlyLabel)
	return out
}

// Reshape turns a flat k-major array into a nested [k][j][i] view. The
// nested rows share storage with flat.
func Reshape(flat []float64, width, height, depth int) [][][]float64 {
	out := make([][][]float64, depth)
	for k := 0; k < depth; k++ {
		out[k] = make([][]float64, height)
		for j := 0; j < height; j++ {
			start := k*width*height + j*width
			out[k][j] = flat[start : start+width : start+width]
		}
	}
	return out
}
