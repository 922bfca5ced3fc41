package models

import (
	"sliceview/pkg/colortable"
)

// Axis indices shared by Volume.Index, Volume.Slices and Volume.Axes
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// File is an external resource backing a container. Dirty means the
// content still has to be (re)loaded by the loader.
type File struct {
	Path  string
	Dirty bool
}

// AxisInfo describes the slice stack along one principal axis
type AxisInfo struct {
	// SliceNormal is the unit normal of the slices in RAS space
	SliceNormal [3]float64

	// OriginD is the plane offset added to the distance from the origin
	OriginD float64

	// SliceSpacing is the distance between consecutive slices in mm
	SliceSpacing float64

	// Count is the number of slices along the axis
	Count int
}

// Volume represents a 3D scalar volume prepared for 2D display
type Volume struct {
	// Data is the 3D volume data as a 1D array, k-major then j then i
	Data []float64

	// Width is the number of voxels along I
	Width int

	// Height is the number of voxels along J
	Height int

	// Depth is the number of voxels along K
	Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}

	// Min and Max are the scalar range of Data
	Min float64
	Max float64

	// WindowLow and WindowHigh bound the display window
	WindowLow  float64
	WindowHigh float64

	// LowerThreshold and UpperThreshold bound the displayed intensities
	LowerThreshold float64
	UpperThreshold float64

	// Parametric selects signed normalization for colortable lookup
	Parametric bool

	// ColorTable is the optional pseudo-color table
	ColorTable *colortable.Table

	// ColorTableFile is the file the colortable is loaded from, if any
	ColorTableFile *File

	// Labelmap is the optional label overlay
	Labelmap *Labelmap

	// File is the file the volume is loaded from, if any
	File *File

	// Index is the current slice index along X, Y and Z
	Index [3]int

	// Slices holds the slice stack per axis
	Slices [3][]*Slice

	// Axes holds the slice geometry per axis
	Axes [3]AxisInfo

	// IJK is the nested [k][j][i] view of Data used for value read-out
	IJK [][][]float64
}

// Dimensions returns the voxel counts along I, J and K
func (v *Volume) Dimensions() [3]int {
	return [3]int{v.Width, v.Height, v.Depth}
}

// VoxelCount returns the number of voxels
func (v *Volume) VoxelCount() int {
	return v.Width * v.Height * v.Depth
}

// CurrentSlice returns the slice at the current index along axis, or nil if
// the stack is not populated.
func (v *Volume) CurrentSlice(axis int) *Slice {
	stack := v.Slices[axis]
	i := v.Index[axis]
	if i < 0 || i >= len(stack) {
		return nil
	}
	return stack[i]
}

// SetIndex moves the current slice along axis, clamped to the stack.
func (v *Volume) SetIndex(axis, index int) {
	n := len(v.Slices[axis])
	if n == 0 {
		n = v.Axes[axis].Count
	}
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	v.Index[axis] = index
}

// ValueAt returns the voxel value at (i, j, k) from the nested view.
func (v *Volume) ValueAt(i, j, k int) (float64, bool) {
	return nestedAt(v.IJK, i, j, k)
}

// Pending reports whether any backing file still has to be loaded.
func (v *Volume) Pending() bool {
	if v.File != nil && v.File.Dirty {
		return true
	}
	if v.ColorTableFile != nil && v.ColorTableFile.Dirty {
		return true
	}
	return v.Labelmap != nil && v.Labelmap.File != nil && v.Labelmap.File.Dirty
}

func nestedAt(ijk [][][]float64, i, j, k int) (float64, bool) {
	if k < 0 || k >= len(ijk) {
		return 0, false
	}
	if j < 0 || j >= len(ijk[k]) {
		return 0, false
	}
	if i < 0 || i >= len(ijk[k][j]) {
		return 0, false
	}
	return ijk[k][j][i], true
}
