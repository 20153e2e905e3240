//go:build !nodebughooks

package scroller

import "go.uber.org/zap"

// DebugHooks is the test/debug surface of a Manager. Build with the
// nodebughooks tag to compile it out.
type DebugHooks struct {
	m *Manager
}

// Debug returns the debug hooks
func (m *Manager) Debug() *DebugHooks {
	return &DebugHooks{m: m}
}

// TestGotoSection resolves a section name and navigates to it
func (d *DebugHooks) TestGotoSection(name string) Result {
	if d.m.sections == nil {
		return rejected(-1, ReasonUnknownName)
	}
	idx, ok := d.m.sections.IndexOf(name)
	if !ok {
		d.m.log.Debug("debug goto: unknown section", zap.String("name", name))
		return rejected(-1, ReasonUnknownName)
	}
	return d.m.GotoSection(idx)
}

// Info returns the manager's diagnostic snapshot
func (d *DebugHooks) Info() Info {
	return d.m.Info()
}
