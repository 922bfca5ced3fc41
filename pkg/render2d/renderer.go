// Package render2d renders orthogonal slices of a volume with a label-map
// overlay onto a 2D canvas.
//
// A render pass goes through three stages: the SliceCache decides whether
// the inputs of the current slice changed, the Compositor rebuilds the
// image and label buffers if they did, and the frame composer places both
// buffers on the visible canvas with the camera's zoom and pan.
package render2d

import (
	"errors"
	"fmt"
	"image"
	"math"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

var (
	// ErrInvalidOrientation is returned for orientation names other than
	// x, y, z, sagittal, coronal and axial.
	ErrInvalidOrientation = errors.New("invalid orientation")

	// ErrNoOrientation is returned when the renderer is used before an
	// orientation was set.
	ErrNoOrientation = errors.New("no 2D orientation set")

	// ErrNoCanvas is returned for missing or empty canvases.
	ErrNoCanvas = errors.New("no canvas")

	// ErrNotInitialized is returned when rendering before Init.
	ErrNotInitialized = errors.New("renderer not initialized")

	// ErrNoVolume is returned when updating with a nil volume.
	ErrNoVolume = errors.New("no volume")

	// ErrNoSlice is returned when the volume has no slice at the current
	// index.
	ErrNoSlice = errors.New("no slice at current index")

	// ErrNoLabelColorTable is returned when label data has to be colored
	// without a colortable.
	ErrNoLabelColorTable = errors.New("labelmap has no colortable")

	// ErrBufferSize is returned when raw slice buffers are shorter than the
	// slice dimensions require.
	ErrBufferSize = errors.New("slice buffer too small")

	// ErrNoNotifier is returned by WaitReady for loaders without Notifier.
	ErrNoNotifier = errors.New("loader cannot notify completion")
)

// Renderer is the lifecycle every renderer exposes.
type Renderer interface {
	Init() error
	Resize(width, height int) error
	Render() error
	Destroy()
}

// Options configures a Renderer2D.
type Options struct {
	Width  int
	Height int

	// Orientation is optional here but must be set before Init.
	Orientation string

	Radiological    bool
	SliceNavigators bool

	Loader    Loader
	Scheduler Scheduler
	Hooks     Hooks
}

// PointerState is the interaction layer's view of the pointer, in canvas
// coordinates.
type PointerState struct {
	X, Y       float64
	Inside     bool
	ShiftDown  bool
	LeftButton bool
}

// Renderer2D renders one orientation of a volume.
type Renderer2D struct {
	base *Lifecycle

	orientation  Orientation
	radiological bool
	navigators   bool

	volume *models.Volume

	sliceWidth         int
	sliceHeight        int
	sliceWidthSpacing  float64
	sliceHeightSpacing float64

	compositor Compositor
	cache      SliceCache

	// palette overrides installed by SetColortable / SetLabelmapColortable
	volumePalette *colortable.Table
	labelPalette  *colortable.Table

	pointer         PointerState
	navigatorActive bool
	lastPick        *Pick
}

var _ Renderer = (*Renderer2D)(nil)

// New creates a 2D renderer. An invalid orientation is rejected here; an
// empty one has to be set with SetOrientation before Init.
func New(opts Options) (*Renderer2D, error) {
	r := &Renderer2D{
		base:         NewLifecycle(opts.Width, opts.Height, opts.Loader, opts.Scheduler, opts.Hooks),
		radiological: opts.Radiological,
		navigators:   opts.SliceNavigators,
	}
	if opts.Orientation != "" {
		if err := r.SetOrientation(opts.Orientation); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Init allocates the canvas. The orientation must be set.
func (r *Renderer2D) Init() error {
	if r.orientation == OrientationNone {
		return ErrNoOrientation
	}
	return r.base.Init()
}

// Resize changes the canvas size and re-fits the slice.
func (r *Renderer2D) Resize(width, height int) error {
	if err := r.base.Resize(width, height); err != nil {
		return err
	}
	r.autoScale()
	return nil
}

// Destroy releases the canvas and buffers.
func (r *Renderer2D) Destroy() {
	r.base.Destroy()
	r.compositor = Compositor{}
	r.cache.Invalidate()
	r.volume = nil
}

// Lifecycle returns the shared lifecycle.
func (r *Renderer2D) Lifecycle() *Lifecycle {
	return r.base
}

// Canvas returns the visible canvas.
func (r *Renderer2D) Canvas() *image.RGBA {
	return r.base.Canvas()
}

// Camera returns the camera for pan and zoom changes.
func (r *Renderer2D) Camera() *Camera {
	return &r.base.Camera
}

// Orientation returns the current orientation.
func (r *Renderer2D) Orientation() Orientation {
	return r.orientation
}

// SetOrientation selects the slicing axis by name. Changing it forces a
// redraw and re-fits the new slice.
func (r *Renderer2D) SetOrientation(name string) error {
	o, err := ParseOrientation(name)
	if err != nil {
		return err
	}
	if o == r.orientation {
		return nil
	}
	r.orientation = o
	r.cache.Invalidate()
	Logger().Info("orientation set", "orientation", o.String())

	if r.volume != nil {
		if s := r.volume.CurrentSlice(o.Axis()); s != nil {
			r.setSliceGeometry(s)
			r.autoScale()
		}
	}
	return nil
}

// Radiological reports whether the radiological convention is used.
func (r *Renderer2D) Radiological() bool {
	return r.radiological
}

// SetRadiological switches between radiological and neurological
// convention.
func (r *Renderer2D) SetRadiological(radiological bool) {
	r.radiological = radiological
}

// NormalizedScale returns the effective zoom, never below 0.0001.
func (r *Renderer2D) NormalizedScale() float64 {
	return math.Max(r.base.Camera.Zoom, 0.0001)
}

// SliceSize returns the dimensions of the current slice in pixels.
func (r *Renderer2D) SliceSize() (int, int) {
	return r.sliceWidth, r.sliceHeight
}

// Buffers returns the off-screen image and label buffers.
func (r *Renderer2D) Buffers() (*image.RGBA, *image.RGBA) {
	return r.compositor.Image(), r.compositor.Label()
}

// Volume returns the displayed volume.
func (r *Renderer2D) Volume() *models.Volume {
	return r.volume
}

// SetColortable replaces the volume colortable by a built-in palette.
// The new table has a new identity, so the next render recomposites.
func (r *Renderer2D) SetColortable(p colortable.Palette) error {
	t, err := colortable.FromPalette(p)
	if err != nil {
		return err
	}
	r.volumePalette = t
	Logger().Info("volume colortable set", "palette", p.String())
	return nil
}

// SetLabelmapColortable replaces the labelmap colortable by a built-in
// palette. The next render recomposites.
func (r *Renderer2D) SetLabelmapColortable(p colortable.Palette) error {
	t, err := colortable.FromPalette(p)
	if err != nil {
		return err
	}
	r.labelPalette = t
	Logger().Info("labelmap colortable set", "palette", p.String())
	return nil
}

// Update attaches vol to the renderer. Dirty backing files are handed to
// the loader first (colortable, then labelmap, then volume); if any is
// still pending afterwards Update returns without attaching and must be
// called again once loading completed. A successful update always forces
// a redraw.
func (r *Renderer2D) Update(vol *models.Volume) error {
	if vol == nil {
		return ErrNoVolume
	}
	if r.orientation == OrientationNone {
		return ErrNoOrientation
	}

	loader := r.base.Loader()
	if f := vol.ColorTableFile; f != nil && f.Dirty {
		loader.Load(f)
	}
	if lm := vol.Labelmap; lm != nil && lm.File != nil && lm.File.Dirty {
		loader.Load(lm.File)
	}
	if f := vol.File; f != nil && f.Dirty {
		loader.Load(f)
	}
	if vol.Pending() {
		Logger().Debug("volume update deferred until loading completes")
		return nil
	}

	s := vol.CurrentSlice(r.orientation.Axis())
	if s == nil {
		return fmt.Errorf("update: %w", ErrNoSlice)
	}

	existed := r.volume == vol
	r.volume = vol
	r.setSliceGeometry(s)
	r.compositor.Resize(s.Width, s.Height)
	r.cache.Invalidate()

	if !existed {
		r.autoScale()
	}
	return nil
}

// Render draws the current slice. While the loader is busy it schedules a
// retry and returns nil without drawing anything.
func (r *Renderer2D) Render() error {
	if !r.base.initialized {
		return ErrNotInitialized
	}

	ready := r.base.checkReady(func() {
		if err := r.Render(); err != nil {
			Logger().Warn("deferred render failed", "err", err)
		}
	})
	if !ready {
		Logger().Debug("render deferred, loader busy")
		return nil
	}

	hooks := r.base.Hooks()
	hooks.OnRender()
	err := r.render()
	hooks.AfterRender()
	return err
}

func (r *Renderer2D) render() error {
	vol := r.volume
	if vol == nil {
		Logger().Warn("nothing to render, no volume")
		return nil
	}

	axis := r.orientation.Axis()
	s := vol.CurrentSlice(axis)
	if s == nil {
		return fmt.Errorf("render: %w", ErrNoSlice)
	}
	r.setSliceGeometry(s)

	state := r.sliceState(vol, s)
	if r.cache.NeedsRedraw(state) {
		Logger().Debug("recompositing slice", "orientation", r.orientation.String(), "index", state.SliceIndex)
		if r.compositor.Resize(s.Width, s.Height) {
			Logger().Debug("frame buffers resized", "width", s.Width, "height", s.Height)
		}
		if err := r.compositor.Composite(r.compositeInput(vol, s)); err != nil {
			return err
		}
		r.cache.Record(state)
	}

	r.composeFrame(vol)
	return nil
}

func (r *Renderer2D) setSliceGeometry(s *models.Slice) {
	r.sliceWidth = s.Width
	r.sliceHeight = s.Height
	r.sliceWidthSpacing = s.WidthSpacing
	r.sliceHeightSpacing = s.HeightSpacing
}

func (r *Renderer2D) volumeColorTable(vol *models.Volume) *colortable.Table {
	if r.volumePalette != nil {
		return r.volumePalette
	}
	return vol.ColorTable
}

func (r *Renderer2D) labelColorTable(lm *models.Labelmap) *colortable.Table {
	if r.labelPalette != nil {
		return r.labelPalette
	}
	return lm.ColorTable
}

func (r *Renderer2D) sliceState(vol *models.Volume, s *models.Slice) SliceState {
	state := SliceState{
		SliceIndex:       vol.Index[r.orientation.Axis()],
		Slice:            s,
		LowerThreshold:   vol.LowerThreshold,
		UpperThreshold:   vol.UpperThreshold,
		WindowLow:        vol.WindowLow,
		WindowHigh:       vol.WindowHigh,
		VolumeColorTable: r.volumeColorTable(vol),
	}
	if lm := vol.Labelmap; lm != nil && s.HasLabel() {
		state.HasLabel = true
		state.LabelColorTable = r.labelColorTable(lm)
		state.ShowOnlyColor = lm.ShowOnlyColor()
		state.LabelRevision = lm.Revision()
	}
	return state
}

func (r *Renderer2D) compositeInput(vol *models.Volume, s *models.Slice) CompositeInput {
	in := CompositeInput{
		Slice:          s,
		Orientation:    r.orientation,
		Window:         Window{Low: vol.WindowLow, High: vol.WindowHigh},
		LowerThreshold: vol.LowerThreshold,
		UpperThreshold: vol.UpperThreshold,
		Parametric:     vol.Parametric,
		ColorTable:     r.volumeColorTable(vol),
	}
	if lm := vol.Labelmap; lm != nil && s.HasLabel() {
		in.Label = NewLabelResolver(lm)
		in.Label.Table = r.labelColorTable(lm)
	}
	return in
}

// autoScale sets the zoom so the current slice fits the canvas. Sagittal
// slices are drawn rotated, so their extents are swapped.
func (r *Renderer2D) autoScale() {
	if r.sliceWidth == 0 || r.sliceHeight == 0 {
		return
	}
	w, h := r.base.Size()
	sw := float64(r.sliceWidth) * r.sliceWidthSpacing
	sh := float64(r.sliceHeight) * r.sliceHeightSpacing
	if r.orientation == OrientationX {
		sw, sh = sh, sw
	}
	r.base.Camera.Zoom = math.Min(float64(w)/sw, float64(h)/sh)
}

// OnScroll moves the slice index by one along the current orientation and
// fires the OnScroll hook.
func (r *Renderer2D) OnScroll(up bool) {
	vol := r.volume
	if vol == nil {
		return
	}
	axis := r.orientation.Axis()
	step := -1
	if up {
		step = 1
	}
	vol.SetIndex(axis, vol.Index[axis]+step)
	r.base.Hooks().OnScroll()
}

// OnWindowLevel applies a window/level drag of dWindow and dLevel steps.
// Each step is a fifteenth of the current width (or half width for the
// level), truncated to whole units and at least one unit. The result is
// clamped to the volume's scalar range.
func (r *Renderer2D) OnWindowLevel(dWindow, dLevel float64) {
	vol := r.volume
	if vol == nil {
		return
	}

	oldWindow := vol.WindowHigh - vol.WindowLow
	oldLevel := oldWindow / 2

	newWindow := math.Trunc(oldWindow + (oldWindow/15)*-dWindow)
	newLevel := math.Trunc(oldLevel + (oldLevel/15)*dLevel)
	if oldWindow == newWindow {
		newWindow++
	}
	if oldLevel == newLevel {
		newLevel++
	}

	vol.WindowLow -= math.Trunc(oldLevel - newLevel)
	vol.WindowLow -= math.Trunc(oldWindow - newWindow)
	vol.WindowLow = math.Max(vol.WindowLow, vol.Min)
	vol.WindowHigh -= math.Trunc(oldLevel - newLevel)
	vol.WindowHigh += math.Trunc(oldWindow - newWindow)
	vol.WindowHigh = math.Min(vol.WindowHigh, vol.Max)

	r.base.Hooks().OnWindowLevel()
}

// ResetView re-fits the slice, clears the pan and resets the window to the
// volume's scalar range.
func (r *Renderer2D) ResetView() {
	r.base.Camera.PanX = 0
	r.base.Camera.PanY = 0
	r.autoScale()
	if vol := r.volume; vol != nil {
		vol.WindowLow = vol.Min
		vol.WindowHigh = vol.Max
	}
}

// SetPointer updates the pointer state used by the slice navigator on the
// next render.
func (r *Renderer2D) SetPointer(p PointerState) {
	r.pointer = p
}
