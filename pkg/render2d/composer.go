package render2d

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"sliceview/internal/models"
)

// bufferToCanvas returns the affine transform from off-screen buffer
// pixels to canvas pixels: zoom about the canvas center, pan, and for
// sagittal slices a 90 degree rotation with swapped pan axes.
func (r *Renderer2D) bufferToCanvas() f64.Aff3 {
	scale := r.NormalizedScale()
	cw, ch := r.base.Size()
	cx, cy := float64(cw)/2, float64(ch)/2

	x := r.base.Camera.PanX
	y := -r.base.Camera.PanY
	if r.orientation == OrientationX {
		x, y = y, -x
	}

	wsp, hsp := r.sliceWidthSpacing, r.sliceHeightSpacing
	offX := -float64(r.sliceWidth)*wsp/2 + x
	offY := -float64(r.sliceHeight)*hsp/2 + y

	if r.orientation == OrientationX {
		// rotated: buffer column u runs down the canvas, buffer row v runs
		// right to left
		return f64.Aff3{
			0, -scale * hsp, cx - scale*offY,
			scale * wsp, 0, cy + scale*offX,
		}
	}
	return f64.Aff3{
		scale * wsp, 0, cx + scale*offX,
		0, scale * hsp, cy + scale*offY,
	}
}

// composeFrame draws the off-screen buffers and the navigator overlay on
// the canvas.
func (r *Renderer2D) composeFrame(vol *models.Volume) {
	canvas := r.base.Canvas()
	draw.Draw(canvas, canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)

	img, label := r.compositor.Image(), r.compositor.Label()
	s2d := r.bufferToCanvas()

	draw.BiLinear.Transform(canvas, s2d, img, img.Bounds(), draw.Over, nil)

	if lm := vol.Labelmap; lm != nil && lm.Visible && vol.CurrentSlice(r.orientation.Axis()).HasLabel() {
		var opts *draw.Options
		if lm.Opacity < 1 {
			opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: clampByte(lm.Opacity * 255)})}
		}
		// labels stay pixelated
		draw.NearestNeighbor.Transform(canvas, s2d, label, label.Bounds(), draw.Over, opts)
	}

	r.navigatorActive = false
	r.lastPick = nil
	p := r.pointer
	if !r.navigators || !p.Inside || !p.ShiftDown || p.LeftButton {
		return
	}
	pick, ok := r.CanvasToVolumeIndex(p.X, p.Y)
	if !ok {
		return
	}

	for axis, idx := range pick.Index {
		vol.SetIndex(axis, idx)
	}
	r.base.Hooks().OnSliceNavigation()

	r.navigatorActive = true
	r.lastPick = &pick
	r.drawCrosshair(canvas, p.X, p.Y)
	drawReadout(canvas, vol, pick)
}

// NavigatorActive reports whether the last render drew the slice
// navigator.
func (r *Renderer2D) NavigatorActive() bool {
	return r.navigatorActive
}

// LastPick returns the pick of the last navigator render, if any.
func (r *Renderer2D) LastPick() (Pick, bool) {
	if r.lastPick == nil {
		return Pick{}, false
	}
	return *r.lastPick, true
}

// drawCrosshair strokes the two guide lines through (x, y), leaving a one
// pixel gap at the pointer.
func (r *Renderer2D) drawCrosshair(canvas *image.RGBA, x, y float64) {
	w, h := r.base.Size()
	vertical, horizontal := r.orientation.navigatorColors()

	dc := gg.NewContextForImage(canvas)
	dc.SetLineWidth(1)

	dc.SetColor(vertical)
	dc.MoveTo(x, 0)
	dc.LineTo(x, y-1)
	dc.MoveTo(x, y+1)
	dc.LineTo(x, float64(h))
	dc.Stroke()

	dc.SetColor(horizontal)
	dc.MoveTo(0, y)
	dc.LineTo(x-1, y)
	dc.MoveTo(x+1, y)
	dc.LineTo(float64(w), y)
	dc.Stroke()

	draw.Draw(canvas, canvas.Bounds(), dc.Image(), image.Point{}, draw.Src)
}

// drawReadout writes the RAS position and the values under the pointer in
// the top left corner.
func drawReadout(canvas *image.RGBA, vol *models.Volume, pick Pick) {
	i, j, k := pick.IJK[0], pick.IJK[1], pick.IJK[2]

	value := "undefined"
	if v, ok := vol.ValueAt(i, j, k); ok {
		value = formatValue(v)
	}

	lines := []string{
		fmt.Sprintf("RAS: %.2f, %.2f, %.2f", pick.RAS[0], pick.RAS[1], pick.RAS[2]),
		fmt.Sprintf("Background:  %s (%d, %d, %d)", value, i, j, k),
	}

	if lm := vol.Labelmap; lm != nil {
		labelValue, name := "undefined", "undefined"
		if v, ok := lm.ValueAt(i, j, k); ok {
			labelValue = formatValue(v)
			if e, found := lm.ColorTable.Get(int(v)); found {
				name = e.Label
			}
		}
		lines = append(lines, fmt.Sprintf("Labelmap:  %s (%s)", name, labelValue))
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: face,
	}
	for n, line := range lines {
		d.Dot = fixed.P(0, n*15+face.Ascent)
		d.DrawString(line)
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
