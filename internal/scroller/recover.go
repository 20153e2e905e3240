package scroller

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"storyscroll/internal/eventbus"
	"storyscroll/internal/state"
)

// ForceSync jumps to the in-flight target, or the current section when idle
func (m *Manager) ForceSync() {
	st := m.store.State()
	target := st.CurrentSection
	if st.HasTarget() && st.InBounds(st.TargetSection) {
		target = st.TargetSection
	}
	m.ForceSyncTo(target)
}

// ForceSyncTo kills any active tween, forces the physical position to the
// start of section index, re-seats the provider, refreshes effects and
// leaves the controller idle and navigable.
func (m *Manager) ForceSyncTo(index int) {
	var n notes
	m.mu.Lock()
	m.forceSyncLocked(&n, index)
	m.mu.Unlock()
	m.flush(&n)
}

func (m *Manager) forceSyncLocked(n *notes, index int) {
	st := m.store.State()
	index = st.Clamp(index)

	if m.active != nil {
		m.log.Debug("force sync killed animation", zap.String("animation", m.active.id))
		m.active = nil
	}

	y := m.surface.ScrollTop()
	if off, ok := m.surface.SectionOffset(index); ok {
		y = off
		m.surface.ScrollTo(y)
	} else {
		m.log.Warn("force sync target not found, keeping position", zap.Int("section", index))
	}
	m.provider.Sync(y)
	m.effects.Refresh()

	m.guard.ForceReset()
	m.dispatchLocked(n, state.EndAnimation{})
	m.dispatchLocked(n, state.EndScrolling{})
	m.dispatchLocked(n, state.SetCurrentIndex{Index: index})
	m.dispatchLocked(n, state.RecordScrollPosition{Position: y})

	m.log.Info("force sync", zap.Int("section", index))
	if index != st.CurrentSection {
		m.sectionChanged(n, st.CurrentSection, index)
	}
}

// ResyncSection adopts index as the current section without moving the
// physical position. Used when the physical position is trusted.
func (m *Manager) ResyncSection(index int) {
	var n notes
	m.mu.Lock()
	st := m.store.State()
	if m.active == nil && index != st.CurrentSection {
		next := m.dispatchLocked(&n, state.SetCurrentIndex{Index: index})
		m.sectionChanged(&n, st.CurrentSection, next.CurrentSection)
	}
	m.mu.Unlock()
	m.flush(&n)
}

// ClearTarget drops the target section
func (m *Manager) ClearTarget() {
	var n notes
	m.mu.Lock()
	m.dispatchLocked(&n, state.SetTargetSection{Index: state.NoTarget})
	m.mu.Unlock()
	m.flush(&n)
}

// RecordPosition stores the observed physical position
func (m *Manager) RecordPosition(y float64) {
	var n notes
	m.mu.Lock()
	m.dispatchLocked(&n, state.RecordScrollPosition{Position: y})
	m.mu.Unlock()
	m.flush(&n)
}

// Emergency tears everything down and resets to section 0. It never panics;
// if the reset itself fails the host is asked to reload.
func (m *Manager) Emergency() {
	from := m.store.State().CurrentSection
	m.log.Error("emergency reset", zap.Int("from_section", from))

	var n notes
	err := m.emergencyReset(&n)
	if err == nil {
		m.flush(&n)
		m.publish(eventbus.EmergencyResetEvent{FromSection: from, Recovered: true})
		return
	}

	m.log.Error("emergency reset failed, requesting reload", zap.Error(err))
	m.publish(eventbus.EmergencyResetEvent{FromSection: from, Recovered: false})
	m.requestReload()
}

func (m *Manager) emergencyReset(n *notes) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during emergency reset: %v\n%s", r, debug.Stack())
		}
	}()

	prev := m.store.State()

	m.active = nil
	m.effects.KillAll()
	if m.provider != nil {
		m.provider.Destroy()
	}
	m.provider = nullProvider{}
	if m.observer != nil {
		m.observer.Destroy()
		m.observer = nil
	}
	m.queue.Clear()
	m.guard.ForceReset()
	top := 0.0
	if off, ok := m.surface.SectionOffset(0); ok {
		top = off
	}
	m.surface.ScrollTo(top)

	// reset to initial values, then re-apply what the host has told us
	m.dispatchLocked(n, state.ResetState{})
	m.dispatchLocked(n, state.SetSectionCount{Count: m.surface.SectionCount()})
	m.dispatchLocked(n, state.SetClientMounted{Mounted: prev.IsClient})
	m.dispatchLocked(n, state.SetPathname{Pathname: prev.Pathname})
	m.dispatchLocked(n, state.RecordScrollPosition{Position: top})

	// fires even when already at 0: consumers must re-render after a reset
	m.sectionChanged(n, prev.CurrentSection, 0)
	return nil
}

func (m *Manager) requestReload() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("reload hook panicked", zap.Any("panic", r))
		}
	}()
	if m.reload == nil {
		m.log.Error("no reload hook installed")
		return
	}
	m.reload()
}

// nullProvider stands in for a destroyed provider
type nullProvider struct{}

func (nullProvider) Follow(float64) {}
func (nullProvider) Sync(float64)   {}
func (nullProvider) Pause()         {}
func (nullProvider) Resume()        {}
func (nullProvider) Destroy()       {}
