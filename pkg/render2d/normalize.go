package render2d

import (
	"math"
)

// Window is a display window over raw intensities.
type Window struct {
	Low  float64
	High float64
}

// Width returns High - Low.
func (w Window) Width() float64 {
	return w.High - w.Low
}

// Level returns the window center.
func (w Window) Level() float64 {
	return w.Width()/2 + w.Low
}

// Band classifies an intensity against a window.
type Band int

const (
	// Below is left of Level - Width/2.
	Below Band = iota
	// Inside is within the window, bounds included.
	Inside
	// Above is right of Level + Width/2.
	Above
)

// Classify places v relative to the window.
func (w Window) Classify(v float64) Band {
	half := w.Width() / 2
	switch {
	case v < w.Level()-half:
		return Below
	case v > w.Level()+half:
		return Above
	}
	return Inside
}

// Clamp indices used in colortable mode outside the window.
const (
	belowIndex = 0
	aboveIndex = 255
)

// roundHalfUp rounds .5 towards +Inf, the rounding every normalization
// formula uses.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// toIndex converts a rounded lookup value to a colortable key. NaN and
// infinite values have no key.
func toIndex(x float64) (int, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxInt32 {
		return 0, false
	}
	return int(x), true
}

// LinearChannel normalizes one channel of an in-window intensity to
// [0,255] without a colortable: round(255*(v-(level-width/2))/width).
// The result may be NaN for a zero-width window.
func LinearChannel(v float64, w Window) float64 {
	return roundHalfUp(255 * (v - (w.Level() - w.Width()/2)) / w.Width())
}

// Luminance returns the display value of a single intensity: 0 below the
// window, 255 above and LinearChannel inside.
func Luminance(v float64, w Window) float64 {
	switch w.Classify(v) {
	case Below:
		return 0
	case Above:
		return 255
	}
	return LinearChannel(v, w)
}

// Normalizer maps raw intensities to colortable indices.
type Normalizer struct {
	Window     Window
	Parametric bool

	// ParamMin and ParamMax are only read by LabelIndex.
	ParamMin float64
	ParamMax float64
}

// VolumeIndex returns the colortable index of a volume intensity for a
// table with numColors entries. Above the window the index clamps to 255.
// The second result is false when no index can be formed, which includes
// every intensity below the window: those pixels stay transparent whatever
// the table holds at index 0.
func (n Normalizer) VolumeIndex(v float64, numColors int) (int, bool) {
	switch n.Window.Classify(v) {
	case Below:
		return belowIndex, false
	case Above:
		return aboveIndex, true
	}

	if !n.Parametric {
		return toIndex(roundHalfUp(255 * (v - n.Window.Low) / (n.Window.High - n.Window.Low)))
	}

	// negative values fill the lower half of the table, positive values the
	// upper half starting at numColors/2
	c := float64(numColors)
	if roundHalfUp(v) <= 0 {
		return toIndex(roundHalfUp((c/2 - 1) - math.Abs(v)*(-(c/2)-1)/n.Window.Low))
	}
	return toIndex(roundHalfUp(c/2 + math.Abs(v)*((c-1)-c/2)/n.Window.High))
}

// LabelIndex returns the colortable index of a label value. It clamps
// like VolumeIndex; the parametric split uses ParamMin and ParamMax as the
// inner bounds of the negative and positive ranges, and a value rounding
// to zero has no index.
func (n Normalizer) LabelIndex(v float64, numColors int) (int, bool) {
	switch n.Window.Classify(v) {
	case Below:
		return belowIndex, true
	case Above:
		return aboveIndex, true
	}

	if !n.Parametric {
		return toIndex(roundHalfUp(255 * (v - n.Window.Low) / (n.Window.High - n.Window.Low)))
	}

	c := float64(numColors)
	switch r := roundHalfUp(v); {
	case r < 0:
		lo, hi := n.Window.Low, n.ParamMin
		return toIndex(roundHalfUp((v - lo) * (c/2 - 1) / (hi - lo)))
	case r > 0:
		lo, hi := n.ParamMax, n.Window.High
		return toIndex(roundHalfUp(c/2 + (v-lo)*((c-1)-c/2)/(hi-lo)))
	}
	return 0, false
}
