package render2d

import (
	"sliceview/internal/models"
)

// Loader fetches external resources. It is owned by the application; the
// renderer only asks for loads and polls for completion.
type Loader interface {
	// Completed reports whether every requested load finished.
	Completed() bool
	// Load requests file to be loaded; the loader clears file.Dirty once
	// the content is in place.
	Load(file *models.File)
}

// Notifier is implemented by loaders that can signal completion. The
// returned channel is closed when every pending load finished.
type Notifier interface {
	Done() <-chan struct{}
}

// Scheduler runs callbacks on a later animation frame, on the rendering
// thread.
type Scheduler interface {
	Schedule(fn func())
}

// FrameLoop is a single-threaded Scheduler: callbacks queued during one
// frame run on the next Tick.
type FrameLoop struct {
	queue []func()
}

// Schedule queues fn for the next Tick.
func (f *FrameLoop) Schedule(fn func()) {
	f.queue = append(f.queue, fn)
}

// Tick runs the callbacks queued before the call and returns how many ran.
// Callbacks scheduled by them wait for the following Tick.
func (f *FrameLoop) Tick() int {
	pending := f.queue
	f.queue = nil
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Pending returns the number of queued callbacks.
func (f *FrameLoop) Pending() int {
	return len(f.queue)
}

// ImmediateLoader is a Loader for content that is already in memory: Load
// just clears the dirty flag, so loading is always complete.
type ImmediateLoader struct {
	loaded []string
}

// Completed always reports true.
func (l *ImmediateLoader) Completed() bool {
	return true
}

// Load marks file as loaded.
func (l *ImmediateLoader) Load(file *models.File) {
	file.Dirty = false
	l.loaded = append(l.loaded, file.Path)
}

// Loaded returns the paths passed to Load, in order.
func (l *ImmediateLoader) Loaded() []string {
	return l.loaded
}
