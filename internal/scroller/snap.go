package scroller

import (
	"math"

	"storyscroll/internal/scroll"
	"storyscroll/internal/state"
)

// SnapPolicy decides where to settle after free scrolling stops. It is
// consulted on the scroll fall edge; returning false leaves the position alone.
type SnapPolicy interface {
	OnScrollEnd(position, velocity float64, s state.ScrollState, surface scroll.Surface) (int, bool)
}

// NearestSnap snaps to the nearest section start. Above VelocityThreshold
// (pixels per second) it snaps in the direction of travel instead.
type NearestSnap struct {
	VelocityThreshold float64
}

func (p NearestSnap) OnScrollEnd(position, velocity float64, s state.ScrollState, surface scroll.Surface) (int, bool) {
	if s.SectionCount == 0 || s.IsAnimating {
		return 0, false
	}
	idx := scroll.SectionAt(surface, position)
	off, ok := surface.SectionOffset(idx)
	if !ok {
		return 0, false
	}
	if p.VelocityThreshold > 0 && math.Abs(velocity) >= p.VelocityThreshold {
		switch {
		case velocity > 0 && off < position:
			idx++
		case velocity < 0 && off > position:
			idx--
		}
	}
	return s.Clamp(idx), true
}
