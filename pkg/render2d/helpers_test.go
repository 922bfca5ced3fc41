package render2d

import (
	"testing"

	"sliceview/internal/models"
	"sliceview/pkg/volume"
)

// newTestVolume builds a volume with unit spacing whose voxels are given by
// fill.
func newTestVolume(t *testing.T, width, height, depth int, fill func(i, j, k int) float64) *models.Volume {
	t.Helper()
	data := make([]float64, width*height*depth)
	for k := 0; k < depth; k++ {
		for j := 0; j < height; j++ {
			for i := 0; i < width; i++ {
				data[k*width*height+j*width+i] = fill(i, j, k)
			}
		}
	}
	vol, err := volume.New(data, width, height, depth, [3]float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	return vol
}

func uniform(v float64) func(i, j, k int) float64 {
	return func(i, j, k int) float64 { return v }
}

// newTestRenderer creates an initialized renderer showing vol.
func newTestRenderer(t *testing.T, opts Options, vol *models.Volume) *Renderer2D {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	if err := r.Init(); err != nil {
		t.Fatalf("Failed to init renderer: %v", err)
	}
	if vol != nil {
		if err := r.Update(vol); err != nil {
			t.Fatalf("Failed to update renderer: %v", err)
		}
	}
	return r
}

// countingHooks counts every callback.
type countingHooks struct {
	showtime, render, afterRender int
	scroll, windowLevel, navigation int
}

func (h *countingHooks) OnShowtime()        { h.showtime++ }
func (h *countingHooks) OnRender()          { h.render++ }
func (h *countingHooks) AfterRender()       { h.afterRender++ }
func (h *countingHooks) OnScroll()          { h.scroll++ }
func (h *countingHooks) OnWindowLevel()     { h.windowLevel++ }
func (h *countingHooks) OnSliceNavigation() { h.navigation++ }

// manualLoader completes only when told to and never clears dirty flags.
type manualLoader struct {
	done   bool
	loaded []string
}

func (l *manualLoader) Completed() bool { return l.done }

func (l *manualLoader) Load(file *models.File) {
	l.loaded = append(l.loaded, file.Path)
}

// notifyingLoader signals completion on a channel.
type notifyingLoader struct {
	manualLoader
	ch chan struct{}
}

func (l *notifyingLoader) Done() <-chan struct{} { return l.ch }
