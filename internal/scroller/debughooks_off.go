//go:build nodebughooks

package scroller

// DebugHooks is compiled out in this build
type DebugHooks struct{}

// Debug returns nil when debug hooks are compiled out
func (m *Manager) Debug() *DebugHooks {
	return nil
}
