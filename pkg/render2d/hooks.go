package render2d

// Hooks receives the renderer's lifecycle and interaction callbacks. Embed
// NopHooks to implement only the callbacks of interest.
type Hooks interface {
	// OnShowtime runs once after loading completed, before the first
	// real render.
	OnShowtime()
	// OnRender runs before every render.
	OnRender()
	// AfterRender runs after every render.
	AfterRender()
	// OnScroll runs after a scroll moved the slice index.
	OnScroll()
	// OnWindowLevel runs after a window/level adjustment.
	OnWindowLevel()
	// OnSliceNavigation runs after the slice navigator moved the indices.
	OnSliceNavigation()
}

// NopHooks implements Hooks with no-ops.
type NopHooks struct{}

func (NopHooks) OnShowtime()        {}
func (NopHooks) OnRender()          {}
func (NopHooks) AfterRender()       {}
func (NopHooks) OnScroll()          {}
func (NopHooks) OnWindowLevel()     {}
func (NopHooks) OnSliceNavigation() {}
