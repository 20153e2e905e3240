package state

import "time"

// NoTarget marks an idle state with no section being animated to
const NoTarget = -1

// SelectorCooldown is the cooldown used by the state-only CanNavigate selector
const SelectorCooldown = 200 * time.Millisecond

var zeroTime time.Time

// ScrollState is the canonical navigation state. It is only ever replaced,
// never mutated in place, by Reduce.
type ScrollState struct {
	CurrentSection     int       // last committed section
	TargetSection      int       // NoTarget when idle
	IsAnimating        bool      // between animation start and completion/interruption
	IsScrolling        bool      // raw scroll or momentum events are arriving
	LastScrollTime     time.Time // last committed navigation or raw scroll event
	IsClient           bool      // mounted in a host that can scroll
	Pathname           string    // current logical route, "" when unknown
	SectionCount       int
	ScrollPosition     float64   // last recorded physical scroll offset
	AnimationStartedAt time.Time // zero when not animating
}

// Initial returns the initial state
func Initial() ScrollState {
	return ScrollState{TargetSection: NoTarget}
}

// HasTarget reports whether a navigation target is set
func (s ScrollState) HasTarget() bool {
	return s.TargetSection != NoTarget
}

// InBounds reports whether index is a valid section for this state
func (s ScrollState) InBounds(index int) bool {
	return index >= 0 && index < s.SectionCount
}

// Clamp limits index to [0, SectionCount-1]. With no sections it returns 0.
func (s ScrollState) Clamp(index int) int {
	return clamp(index, s.SectionCount)
}

func clamp(index, count int) int {
	if index < 0 || count <= 0 {
		return 0
	}
	if index >= count {
		return count - 1
	}
	return index
}

// CanNavigate is the state-only navigation selector: not animating and more
// than cooldown since the last scroll time. Pass SelectorCooldown for the
// default threshold.
func CanNavigate(s ScrollState, now time.Time, cooldown time.Duration) bool {
	if s.IsAnimating {
		return false
	}
	return s.LastScrollTime.IsZero() || now.Sub(s.LastScrollTime) > cooldown
}

// IsReady reports whether the host is mounted
func IsReady(s ScrollState) bool {
	return s.IsClient
}
