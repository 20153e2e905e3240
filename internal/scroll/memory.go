package scroll

import "sync"

// MemorySurface is an in-process surface: a stack of sections with known
// heights. The terminal viewer and tests scroll it.
type MemorySurface struct {
	mu       sync.RWMutex
	viewport float64
	offsets  []float64
	total    float64
	pos      float64
	writes   int
}

// NewMemorySurface creates a surface of count sections, each one viewport tall
func NewMemorySurface(viewport float64, count int) *MemorySurface {
	heights := make([]float64, count)
	for i := range heights {
		heights[i] = viewport
	}
	m := &MemorySurface{viewport: viewport}
	m.SetHeights(heights)
	return m
}

// SetHeights replaces the section layout. The position is clamped to the new extent.
func (m *MemorySurface) SetHeights(heights []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets = make([]float64, len(heights))
	var y float64
	for i, h := range heights {
		m.offsets[i] = y
		y += h
	}
	m.total = y
	m.pos = m.clampLocked(m.pos)
}

// SetViewport changes the viewport height without touching the layout
func (m *MemorySurface) SetViewport(h float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = h
}

func (m *MemorySurface) clampLocked(y float64) float64 {
	if y < 0 {
		return 0
	}
	if y > m.total {
		return m.total
	}
	return y
}

func (m *MemorySurface) ScrollTop() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pos
}

func (m *MemorySurface) ScrollTo(y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = m.clampLocked(y)
	m.writes++
}

func (m *MemorySurface) ViewportHeight() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}

func (m *MemorySurface) SectionOffset(i int) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.offsets) {
		return 0, false
	}
	return m.offsets[i], true
}

func (m *MemorySurface) SectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.offsets)
}

// Writes counts ScrollTo calls
func (m *MemorySurface) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
