// Package volume assembles display-ready volumes: it derives the three
// orthogonal slice stacks, their affines and the label overlays from flat
// voxel arrays.
package volume

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

var (
	// ErrDimensions is returned for non-positive volume dimensions.
	ErrDimensions = errors.New("invalid volume dimensions")

	// ErrDataSize is returned when a voxel array does not match the
	// dimensions.
	ErrDataSize = errors.New("voxel data does not match dimensions")

	// ErrSpacing is returned for non-positive voxel spacings.
	ErrSpacing = errors.New("invalid voxel spacing")
)

// sliceIDs hands out slice identities; rebuilding a stack creates new ones
var sliceIDs atomic.Int64

// New creates a volume from flat voxel data ordered k-major, then j, then
// i, with the given voxel spacing in mm. The window and the thresholds
// span the full scalar range and every axis starts at its middle slice.
func New(data []float64, width, height, depth int, spacing [3]float64) (*models.Volume, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrDimensions, width, height, depth)
	}
	if len(data) != width*height*depth {
		return nil, fmt.Errorf("%w: got %d voxels, want %d", ErrDataSize, len(data), width*height*depth)
	}
	for _, s := range spacing {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: %v", ErrSpacing, spacing)
		}
	}

	vol := &models.Volume{
		Data:   data,
		Width:  width,
		Height: height,
		Depth:  depth,
		IJK:    models.Reshape(data, width, height, depth),
	}
	vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z = spacing[0], spacing[1], spacing[2]

	// the range is taken over texel values so the extreme voxels of a
	// slice always pass the default thresholds
	texels := make([]float64, len(data))
	for n, v := range data {
		texels[n] = texelValue(v)
	}
	vol.Min = floats.Min(texels)
	vol.Max = floats.Max(texels)
	vol.WindowLow, vol.WindowHigh = vol.Min, vol.Max
	vol.LowerThreshold, vol.UpperThreshold = vol.Min, vol.Max

	dims := vol.Dimensions()
	for axis := range vol.Axes {
		var normal [3]float64
		normal[axis] = 1
		vol.Axes[axis] = models.AxisInfo{
			SliceNormal:  normal,
			SliceSpacing: spacing[axis],
			Count:        dims[axis],
		}
		vol.Index[axis] = dims[axis] / 2
	}

	BuildSlices(vol)
	return vol, nil
}

// AttachLabelmap creates a labelmap over vol from flat label values in the
// volume's voxel order, colored by table, and rebuilds the slice stacks so
// they carry label data.
func AttachLabelmap(vol *models.Volume, labels []float64, table *colortable.Table) (*models.Labelmap, error) {
	if len(labels) != vol.VoxelCount() {
		return nil, fmt.Errorf("%w: got %d labels, want %d", ErrDataSize, len(labels), vol.VoxelCount())
	}
	if table == nil {
		return nil, models.ErrNoColorTable
	}

	lm := models.NewLabelmap(vol.Width, vol.Height, vol.Depth)
	lm.Data = labels
	lm.IJK = models.Reshape(labels, vol.Width, vol.Height, vol.Depth)
	lm.ColorTable = table

	// label values index the table directly
	lm.Min = floats.Min(labels)
	lm.Max = floats.Max(labels)
	lm.WindowLow, lm.WindowHigh = 0, 255
	lm.ParamMin, lm.ParamMax = math.Min(lm.Min, 0), math.Max(lm.Max, 0)

	vol.Labelmap = lm
	BuildSlices(vol)
	return lm, nil
}

// BuildSlices regenerates the three slice stacks of vol, including label
// data when a labelmap is attached. Every slice gets a new identity.
//
// Slice pixel (x, y) addresses voxel (i, j, k) as follows:
//
//	X: (n, x, y)    width J, height K
//	Y: (x, n, y)    width I, height K
//	Z: (x, y, n)    width I, height J
func BuildSlices(vol *models.Volume) {
	dims := vol.Dimensions()
	sp := [3]float64{vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z}

	for axis := 0; axis < 3; axis++ {
		u, v := inPlaneAxes(axis)
		stack := make([]*models.Slice, dims[axis])
		for n := range stack {
			stack[n] = buildSlice(vol, axis, u, v, n, dims, sp)
		}
		vol.Slices[axis] = stack
		vol.Axes[axis].Count = dims[axis]
	}
}

// texelValue returns v as stored in a slice texture.
func texelValue(v float64) float64 {
	return float64(float32(v))
}

// inPlaneAxes returns the volume axes running along a slice's width and
// height.
func inPlaneAxes(axis int) (u, v int) {
	switch axis {
	case models.AxisX:
		return models.AxisY, models.AxisZ
	case models.AxisY:
		return models.AxisX, models.AxisZ
	}
	return models.AxisX, models.AxisY
}

func buildSlice(vol *models.Volume, axis, u, v, n int, dims [3]int, sp [3]float64) *models.Slice {
	width, height := dims[u], dims[v]
	s := &models.Slice{
		ID:            int(sliceIDs.Add(1)),
		Width:         width,
		Height:        height,
		WidthSpacing:  sp[u],
		HeightSpacing: sp[v],
		// voxel centers sit on multiples of the spacing, so the first
		// pixel's edge is half a voxel before the origin
		WMin:    -sp[u] / 2,
		HMin:    -sp[v] / 2,
		Texture: make([]float32, 4*width*height),
	}
	z := float64(n) * sp[axis]
	s.XYBBox = [6]float64{
		s.WMin, s.WMin + float64(width)*sp[u],
		s.HMin, s.HMin + float64(height)*sp[v],
		z, z,
	}
	s.XYToIJK, s.XYToRAS = sliceAffines(axis, u, v, sp)

	lm := vol.Labelmap
	if lm != nil {
		s.Label = make([]float32, 4*width*height)
		s.LabelValues = make([]float32, width*height)
	}

	var ijk [3]int
	ijk[axis] = n
	for y := 0; y < height; y++ {
		ijk[v] = y
		for x := 0; x < width; x++ {
			ijk[u] = x
			p := y*width + x
			voxel := ijk[2]*dims[0]*dims[1] + ijk[1]*dims[0] + ijk[0]

			value := float32(texelValue(vol.Data[voxel]))
			s.Texture[4*p] = value
			s.Texture[4*p+1] = value
			s.Texture[4*p+2] = value
			s.Texture[4*p+3] = 255

			if lm != nil {
				label := lm.Data[voxel]
				s.LabelValues[p] = float32(label)
				copy(s.Label[4*p:4*p+4], labelColor(lm.ColorTable, label))
			}
		}
	}
	return s
}

// labelColor returns the raw label color of a label value, quantized the
// way show-only colors are. Values missing from the table are transparent
// black.
func labelColor(t *colortable.Table, label float64) []float32 {
	out := make([]float32, 4)
	if math.IsNaN(label) {
		return out
	}
	e, ok := t.Get(int(label))
	if !ok {
		return out
	}
	for i, c := range []float64{e.R, e.G, e.B, e.A} {
		out[i] = float32(math.Floor(c * 255))
	}
	return out
}

// sliceAffines returns the homogeneous XY to IJK and XY to RAS transforms
// of a slice along axis. In-plane x runs along volume axis u, y along v,
// and z along the slice normal. RAS is IJK scaled by the spacing, with
// voxel centers at integral IJK.
func sliceAffines(axis, u, v int, sp [3]float64) (*mat.Dense, *mat.Dense) {
	toIJK := mat.NewDense(4, 4, nil)
	toRAS := mat.NewDense(4, 4, nil)
	for col, a := range [3]int{u, v, axis} {
		toIJK.Set(a, col, 1/sp[a])
		toIJK.Set(a, 3, 0.5)
		toRAS.Set(a, col, 1)
	}
	toIJK.Set(3, 3, 1)
	toRAS.Set(3, 3, 1)
	return toIJK, toRAS
}
