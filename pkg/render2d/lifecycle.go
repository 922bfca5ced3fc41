package render2d

import (
	"context"
	"fmt"
	"image"
)

// Camera holds the 2D view: pan in slice units and zoom factor. PanY
// follows the 3D view convention and is flipped when drawing.
type Camera struct {
	PanX float64
	PanY float64
	Zoom float64
}

type loadState int

const (
	stateWaiting loadState = iota
	stateReady
)

// Lifecycle is the part of a renderer that does not depend on the number
// of dimensions: the visible canvas, the camera, and the wait-for-loader
// state machine. Concrete renderers hold one and delegate to it.
type Lifecycle struct {
	Camera Camera

	width  int
	height int
	canvas *image.RGBA

	loader    Loader
	scheduler Scheduler
	hooks     Hooks

	state        loadState
	retryPending bool
	initialized  bool
	destroyed    bool
}

// NewLifecycle creates a lifecycle for a canvas of the given size. Nil
// collaborators are replaced by an ImmediateLoader, a FrameLoop and
// NopHooks.
func NewLifecycle(width, height int, loader Loader, scheduler Scheduler, hooks Hooks) *Lifecycle {
	if loader == nil {
		loader = &ImmediateLoader{}
	}
	if scheduler == nil {
		scheduler = &FrameLoop{}
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Lifecycle{
		Camera:    Camera{Zoom: 1},
		width:     width,
		height:    height,
		loader:    loader,
		scheduler: scheduler,
		hooks:     hooks,
	}
}

// Init allocates the visible canvas.
func (l *Lifecycle) Init() error {
	if l.width <= 0 || l.height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrNoCanvas, l.width, l.height)
	}
	l.canvas = image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	l.initialized = true
	l.destroyed = false
	return nil
}

// Resize reallocates the canvas with new dimensions.
func (l *Lifecycle) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrNoCanvas, width, height)
	}
	l.width, l.height = width, height
	if l.initialized {
		l.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return nil
}

// Destroy releases the canvas. Retries already scheduled become no-ops.
func (l *Lifecycle) Destroy() {
	l.canvas = nil
	l.initialized = false
	l.destroyed = true
}

// Canvas returns the visible canvas, nil before Init.
func (l *Lifecycle) Canvas() *image.RGBA {
	return l.canvas
}

// Size returns the canvas dimensions.
func (l *Lifecycle) Size() (int, int) {
	return l.width, l.height
}

// Hooks returns the installed hooks.
func (l *Lifecycle) Hooks() Hooks {
	return l.hooks
}

// Loader returns the installed loader.
func (l *Lifecycle) Loader() Loader {
	return l.loader
}

// Ready reports whether the last readiness check found the loader done.
func (l *Lifecycle) Ready() bool {
	return l.state == stateReady
}

// checkReady advances the waiting/ready state machine. While the loader is
// busy it schedules retry on the next frame (at most one pending retry)
// and returns false. On the transition to ready it fires OnShowtime.
func (l *Lifecycle) checkReady(retry func()) bool {
	if l.retryPending {
		return false
	}

	if !l.loader.Completed() {
		l.state = stateWaiting
		l.retryPending = true
		l.scheduler.Schedule(func() {
			l.retryPending = false
			if !l.destroyed {
				retry()
			}
		})
		return false
	}

	if l.state != stateReady {
		l.state = stateReady
		Logger().Info("loading completed, showtime")
		l.hooks.OnShowtime()
	}
	return true
}

// WaitReady blocks until the loader reports completion or ctx ends. The
// loader must implement Notifier unless it is already complete.
func (l *Lifecycle) WaitReady(ctx context.Context) error {
	if l.loader.Completed() {
		return nil
	}
	n, ok := l.loader.(Notifier)
	if !ok {
		return ErrNoNotifier
	}
	select {
	case <-n.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
