package scroller

import (
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/debounce"
	"storyscroll/internal/queue"
	"storyscroll/internal/scroll"
	"storyscroll/internal/state"
)

// Mount marks the controller as attached to a host that can scroll
func (m *Manager) Mount() {
	var n notes
	m.mu.Lock()
	m.dispatchLocked(&n, state.SetClientMounted{Mounted: true})
	m.dispatchLocked(&n, state.SetSectionCount{Count: m.surface.SectionCount()})
	m.mu.Unlock()
	m.flush(&n)
}

// SetSectionCount applies a runtime change in the number of sections
func (m *Manager) SetSectionCount(count int) {
	var n notes
	m.mu.Lock()
	m.dispatchLocked(&n, state.SetSectionCount{Count: count})
	m.mu.Unlock()
	m.flush(&n)
}

// SetPathname handles a route change. A new route resets scroll state.
func (m *Manager) SetPathname(pathname string) {
	var n notes
	m.mu.Lock()
	if m.store.State().Pathname != pathname {
		if m.active != nil {
			m.interruptLocked(&n, "route-change")
		}
		m.queue.Clear()
		m.dispatchLocked(&n, state.SetPathname{Pathname: pathname})
		m.dispatchLocked(&n, state.ResetScrollState{})
		m.log.Debug("route changed", zap.String("pathname", pathname))
	}
	m.mu.Unlock()
	m.flush(&n)
}

// SetVisible pauses the provider and input while the host is hidden
func (m *Manager) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visible == visible {
		return
	}
	m.visible = visible
	if visible {
		m.provider.Resume()
		if m.observer != nil {
			m.observer.Enable()
		}
	} else {
		m.provider.Pause()
		if m.observer != nil {
			m.observer.Disable()
		}
	}
}

// Visible reports the last SetVisible value
func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Resize refreshes scroll-linked effects after section offsets moved. When
// idle the position is re-seated on the current section; an in-flight tween
// is pointed at its target's new offset.
func (m *Manager) Resize() {
	var n notes
	m.mu.Lock()
	m.effects.Refresh()
	st := m.store.State()
	if count := m.surface.SectionCount(); st.SectionCount != count {
		st = m.dispatchLocked(&n, state.SetSectionCount{Count: count})
	}
	if m.active != nil {
		m.retargetLocked(&n, m.clk.Now())
	} else if off, ok := m.surface.SectionOffset(st.CurrentSection); ok {
		m.surface.ScrollTo(off)
		m.provider.Sync(off)
		m.dispatchLocked(&n, state.RecordScrollPosition{Position: off})
	}
	m.mu.Unlock()
	m.flush(&n)
}

// AttachObserver installs a new input observer, destroying the previous one
func (m *Manager) AttachObserver(obs scroll.InputObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.observer != nil && m.observer != obs {
		m.observer.Destroy()
	}
	m.observer = obs
}

// Info is a diagnostic snapshot
type Info struct {
	State           state.ScrollState
	Guard           debounce.DebugInfo
	ActiveAnimation string
	AnimationAge    time.Duration
	Pending         []queue.Request
	Visible         bool
}

// Info returns a diagnostic snapshot
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := Info{
		State:   m.store.State(),
		Guard:   m.guard.DebugInfo(),
		Pending: m.queue.Pending(),
		Visible: m.visible,
	}
	if m.active != nil {
		info.ActiveAnimation = m.active.id
		info.AnimationAge = m.clk.Now().Sub(info.State.AnimationStartedAt)
	}
	return info
}
