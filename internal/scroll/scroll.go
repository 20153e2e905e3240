package scroll

// Surface is the physical scroll position and layout of the host. The
// scroller Manager is its only writer while an animation runs.
type Surface interface {
	ScrollTop() float64
	ScrollTo(y float64)
	ViewportHeight() float64
	// SectionOffset returns the start offset of section i, or false when the
	// host cannot locate it
	SectionOffset(i int) (float64, bool)
	SectionCount() int
}

// SmoothScrollProvider is an inertial/eased scroller. While a section tween
// is active it only follows; when idle it may own position.
type SmoothScrollProvider interface {
	// Follow mirrors a position written by the tween
	Follow(y float64)
	// Sync re-seats the provider's internal cursor after a forced jump
	Sync(y float64)
	Pause()
	Resume()
	Destroy()
}

// EffectsRefresher is a scroll-linked effects registry (parallax, pinning)
type EffectsRefresher interface {
	Refresh()
	KillAll()
}

// InputObserver is a raw input binding that can be torn down
type InputObserver interface {
	Enable()
	Disable()
	Destroy()
}

// SectionAt returns the section whose start offset is nearest to y. With
// uniform section heights this is round(y / height).
func SectionAt(s Surface, y float64) int {
	best, bestDist := 0, -1.0
	for i := 0; i < s.SectionCount(); i++ {
		off, ok := s.SectionOffset(i)
		if !ok {
			continue
		}
		d := off - y
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SectionHeight is the height of section i, falling back to the viewport
func SectionHeight(s Surface, i int) float64 {
	start, ok := s.SectionOffset(i)
	if !ok {
		return s.ViewportHeight()
	}
	if next, ok := s.SectionOffset(i + 1); ok && next > start {
		return next - start
	}
	return s.ViewportHeight()
}
