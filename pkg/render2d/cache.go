package render2d

import (
	"sliceview/internal/models"
	"sliceview/pkg/colortable"
)

// SliceState is the set of inputs that determine the composited slice.
type SliceState struct {
	SliceIndex int
	Slice      *models.Slice

	LowerThreshold float64
	UpperThreshold float64
	WindowLow      float64
	WindowHigh     float64

	VolumeColorTable *colortable.Table

	// The label fields are only meaningful when HasLabel is set.
	HasLabel        bool
	LabelColorTable *colortable.Table
	ShowOnlyColor   [4]float32
	LabelRevision   uint64
}

// SliceCache remembers the state of the last successful composite.
type SliceCache struct {
	last  SliceState
	valid bool
}

// NeedsRedraw reports whether state differs from the recorded baseline.
// It does not change the baseline; call Record once the redraw succeeded.
func (c *SliceCache) NeedsRedraw(s SliceState) bool {
	if !c.valid {
		return true
	}

	l := c.last
	if s.SliceIndex != l.SliceIndex || s.Slice != l.Slice ||
		s.LowerThreshold != l.LowerThreshold || s.UpperThreshold != l.UpperThreshold ||
		s.WindowLow != l.WindowLow || s.WindowHigh != l.WindowHigh ||
		s.VolumeColorTable != l.VolumeColorTable {
		return true
	}

	if s.HasLabel != l.HasLabel {
		return true
	}
	if !s.HasLabel {
		return false
	}
	return s.LabelColorTable != l.LabelColorTable ||
		s.ShowOnlyColor != l.ShowOnlyColor ||
		s.LabelRevision != l.LabelRevision
}

// Record stores s as the new baseline. Label fields are carried over from
// the previous baseline when s has no label data.
func (c *SliceCache) Record(s SliceState) {
	if !s.HasLabel {
		s.LabelColorTable = c.last.LabelColorTable
		s.ShowOnlyColor = c.last.ShowOnlyColor
		s.LabelRevision = c.last.LabelRevision
	}
	c.last = s
	c.valid = true
}

// Invalidate forces the next NeedsRedraw to report true.
func (c *SliceCache) Invalidate() {
	c.valid = false
}
