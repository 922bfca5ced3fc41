package render2d

import (
	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

// Color is an RGBA color in the [0,255] display range, not yet quantized.
type Color [4]float64

// transparent is the fallback for every lookup that has no answer.
var transparent = Color{}

// lookup resolves a colortable index to a display color. Undefined keys
// are transparent black.
func lookup(t *colortable.Table, index int, ok bool) Color {
	if !ok {
		return transparent
	}
	e, found := t.Get(index)
	if !found {
		return transparent
	}
	return Color(e.RGBA8())
}

// LabelResolver decides the overlay color of one label pixel.
type LabelResolver struct {
	Table      *colortable.Table
	Normalizer Normalizer
	ShowOnly   [4]float32
}

// NewLabelResolver captures the labelmap state needed during one scan.
func NewLabelResolver(lm *models.Labelmap) *LabelResolver {
	return &LabelResolver{
		Table: lm.ColorTable,
		Normalizer: Normalizer{
			Window:     Window{Low: lm.WindowLow, High: lm.WindowHigh},
			Parametric: lm.Parametric,
			ParamMin:   lm.ParamMin,
			ParamMax:   lm.ParamMax,
		},
		ShowOnly: lm.ShowOnlyColor(),
	}
}

// ShowsAll reports whether the filter is the show-all sentinel.
func (r *LabelResolver) ShowsAll() bool {
	return r.ShowOnly[3] == models.ShowAll
}

// Matches reports whether the four raw label components equal the
// show-only color exactly.
func (r *LabelResolver) Matches(raw []float32) bool {
	return raw[0] == r.ShowOnly[0] && raw[1] == r.ShowOnly[1] &&
		raw[2] == r.ShowOnly[2] && raw[3] == r.ShowOnly[3]
}

// Resolve returns the overlay color of one pixel from its label value and
// its four raw label components. Callers only invoke it for pixels whose
// base intensity passed the threshold.
func (r *LabelResolver) Resolve(value float64, raw []float32) Color {
	idx, ok := r.Normalizer.LabelIndex(value, r.Table.Len())
	c := lookup(r.Table, idx, ok)

	if r.ShowsAll() || r.Matches(raw) {
		return c
	}
	return transparent
}
