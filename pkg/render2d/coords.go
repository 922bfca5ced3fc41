package render2d

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"sliceview/internal/models"
)

// Pick is the result of mapping a canvas position into the volume.
type Pick struct {
	// Index is the slice index along X, Y and Z derived from the physical
	// distance to each axis' origin plane.
	Index [3]int
	// IJK is the floored voxel index from the slice's XY to IJK affine.
	IJK [3]int
	// RAS is the patient-space position.
	RAS [3]float64
}

// sliceRect returns the canvas rectangle covered by the current slice as
// left, top, width, height. Sagittal slices are rotated, so their extents
// are swapped.
func (r *Renderer2D) sliceRect() (left, top, width, height float64) {
	sw := float64(r.sliceWidth) * r.sliceWidthSpacing
	sh := float64(r.sliceHeight) * r.sliceHeightSpacing
	if r.orientation == OrientationX {
		sw, sh = sh, sw
	}

	scale := r.NormalizedScale()
	cw, ch := r.base.Size()
	width = sw * scale
	height = sh * scale
	left = float64(cw)/2 - width/2 + r.base.Camera.PanX*scale
	top = float64(ch)/2 - height/2 - r.base.Camera.PanY*scale
	return left, top, width, height
}

// canvasToSlicePixel returns the continuous pixel position in the slice's
// own (texture) layout under canvas point (x, y). It undoes zoom, pan and
// the orientation write transform.
func (r *Renderer2D) canvasToSlicePixel(x, y float64) (float64, float64, bool) {
	left, top, width, height := r.sliceRect()
	if !(x > left && x < left+width && y > top && y < top+height) {
		return 0, 0, false
	}

	sw, sh := float64(r.sliceWidth), float64(r.sliceHeight)
	if r.orientation == OrientationX {
		sw, sh = sh, sw
	}
	px := (x - left) / width * sw
	py := (y - top) / height * sh

	switch r.orientation {
	case OrientationX:
		// invert columns, then swap to undo the 90 degree rotation
		px = sw - px
		px, py = py, px
	case OrientationY:
		px = sw - px
	case OrientationZ:
		px = sw - px
		py = sh - py
	}
	return px, py, true
}

// CanvasToVolumeIndex maps a canvas position to volume coordinates. It
// reports false when the position is outside the rendered slice or no
// volume is attached.
func (r *Renderer2D) CanvasToVolumeIndex(x, y float64) (Pick, bool) {
	vol := r.volume
	if vol == nil {
		return Pick{}, false
	}
	s := vol.CurrentSlice(r.orientation.Axis())
	if s == nil {
		return Pick{}, false
	}

	px, py, ok := r.canvasToSlicePixel(x, y)
	if !ok {
		return Pick{}, false
	}

	xyz := mat.NewVecDense(4, []float64{
		s.WMin + px*s.WidthSpacing,
		s.HMin + py*s.HeightSpacing,
		s.XYBBox[4],
		1,
	})

	var pick Pick
	var ijk, ras mat.VecDense
	ijk.MulVec(s.XYToIJK, xyz)
	ras.MulVec(s.XYToRAS, xyz)
	for i := 0; i < 3; i++ {
		pick.IJK[i] = int(math.Floor(ijk.AtVec(i)))
		pick.RAS[i] = ras.AtVec(i)
	}
	pick.Index = axisIndices(vol.Axes, pick.RAS)
	return pick, true
}

// axisIndices derives the slice index along each axis from the distance
// of ras to the axis' origin plane, clamped to the stack.
func axisIndices(axes [3]models.AxisInfo, ras [3]float64) [3]int {
	var out [3]int
	for a, info := range axes {
		d := info.SliceNormal[0]*ras[0] + info.SliceNormal[1]*ras[1] +
			info.SliceNormal[2]*ras[2] + info.OriginD

		spacing := info.SliceSpacing
		if spacing <= 0 {
			spacing = 1
		}
		idx := int(roundHalfUp(d / spacing))
		if idx >= info.Count {
			idx = info.Count - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[a] = idx
	}
	return out
}
