// Package debounce implements the navigation gate: it tracks in-flight
// animations, raw scroll activity and the cooldown since the last navigation,
// and answers a single question, CanNavigate.
//
// All state lives on the Guard. A method value such as g.CanNavigate captured
// at registration time reads the live fields on every call, so handlers bound
// early never observe stale state.
package debounce

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/clock"
)

// DefaultAnimationID is used when an empty id is passed to MarkAnimationStart/End
const DefaultAnimationID = "default"

// RejectReason names the gate that is currently closed
type RejectReason string

const (
	ReasonNone      RejectReason = ""
	ReasonCooldown  RejectReason = "cooldown"
	ReasonAnimating RejectReason = "animating"
	ReasonScrolling RejectReason = "scrolling"
)

// Config holds the gate settings
type Config struct {
	NavigationCooldown time.Duration
	AnimationDuration  time.Duration // informational
	ScrollEndDelay     time.Duration
	PreventOverlap     bool // false lets navigation through while animating
	TrackMomentum      bool // false lets navigation through while scrolling
}

// DefaultConfig returns the default gate settings
func DefaultConfig() Config {
	return Config{
		NavigationCooldown: 200 * time.Millisecond,
		AnimationDuration:  1500 * time.Millisecond,
		ScrollEndDelay:     150 * time.Millisecond,
		PreventOverlap:     true,
		TrackMomentum:      true,
	}
}

// DebugInfo is a snapshot of the gate for diagnostics
type DebugInfo struct {
	IsAnimating             bool
	IsScrolling             bool
	ActiveAnimations        []string
	TimeSinceLastNavigation time.Duration
	CanNavigate             bool
}

// Guard is the mutual-exclusion gate over animation, scroll and cooldown state
type Guard struct {
	mu  sync.Mutex
	cfg Config
	clk clock.Clock
	log *zap.Logger

	activeAnimations map[string]struct{}
	scrolling        bool
	scrollEndAt      time.Time // zero when no fall edge is pending
	lastNavigation   time.Time
}

// New creates a guard
func New(cfg Config, clk clock.Clock, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		cfg:              cfg,
		clk:              clock.OrReal(clk),
		log:              log.Named("debounce"),
		activeAnimations: make(map[string]struct{}),
	}
}

// Config returns the gate settings
func (g *Guard) Config() Config {
	return g.cfg
}

// CanNavigate reports whether a new navigation may start now. It has no side
// effects and is derived from the stored fields and the current time only.
func (g *Guard) CanNavigate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reasonLocked(g.clk.Now()) == ReasonNone
}

// Reason returns which gate is closed, or ReasonNone when navigation is allowed.
// Animation is reported before scrolling before cooldown.
func (g *Guard) Reason() RejectReason {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reasonLocked(g.clk.Now())
}

func (g *Guard) reasonLocked(now time.Time) RejectReason {
	if g.cfg.PreventOverlap && len(g.activeAnimations) > 0 {
		return ReasonAnimating
	}
	if g.cfg.TrackMomentum && g.scrollingLocked(now) {
		return ReasonScrolling
	}
	if !g.lastNavigation.IsZero() && now.Sub(g.lastNavigation) < g.cfg.NavigationCooldown {
		return ReasonCooldown
	}
	return ReasonNone
}

func (g *Guard) scrollingLocked(now time.Time) bool {
	if !g.scrolling {
		return false
	}
	return g.scrollEndAt.IsZero() || now.Before(g.scrollEndAt)
}

// IsAnimating reports whether any named animation is in flight
func (g *Guard) IsAnimating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.activeAnimations) > 0
}

// IsScrolling reports whether raw scroll activity is still considered live
func (g *Guard) IsScrolling() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scrollingLocked(g.clk.Now())
}

// MarkAnimationStart registers an in-flight animation. Duplicate ids are
// idempotent.
func (g *Guard) MarkAnimationStart(id string) {
	if id == "" {
		id = DefaultAnimationID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeAnimations[id] = struct{}{}
	g.lastNavigation = g.clk.Now()
	g.log.Debug("animation start", zap.String("id", id), zap.Int("active", len(g.activeAnimations)))
}

// MarkAnimationEnd removes an animation. The cooldown is measured from here,
// so CanNavigate stays false for NavigationCooldown after the last animation ends.
func (g *Guard) MarkAnimationEnd(id string) {
	if id == "" {
		id = DefaultAnimationID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.activeAnimations[id]; !ok {
		return
	}
	delete(g.activeAnimations, id)
	g.lastNavigation = g.clk.Now()
	g.log.Debug("animation end", zap.String("id", id), zap.Int("active", len(g.activeAnimations)))
}

// MarkScrollStart raises the scrolling flag and cancels any pending fall edge
func (g *Guard) MarkScrollStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrolling = true
	g.scrollEndAt = time.Time{}
}

// MarkScrollEnd schedules the scrolling flag to drop after ScrollEndDelay
// unless MarkScrollStart is called again first
func (g *Guard) MarkScrollEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.scrolling {
		return
	}
	g.scrollEndAt = g.clk.Now().Add(g.cfg.ScrollEndDelay)
}

// ForceReset clears every animation id, the scrolling flag and the cooldown.
// Only the recovery path should call it.
func (g *Guard) ForceReset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log.Warn("force reset",
		zap.Strings("active", g.activeIDsLocked()),
		zap.Bool("scrolling", g.scrolling))
	g.activeAnimations = make(map[string]struct{})
	g.scrolling = false
	g.scrollEndAt = time.Time{}
	g.lastNavigation = time.Time{}
}

// DebugInfo returns a snapshot for diagnostics
func (g *Guard) DebugInfo() DebugInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clk.Now()
	var since time.Duration
	if !g.lastNavigation.IsZero() {
		since = now.Sub(g.lastNavigation)
	}
	return DebugInfo{
		IsAnimating:             len(g.activeAnimations) > 0,
		IsScrolling:             g.scrollingLocked(now),
		ActiveAnimations:        g.activeIDsLocked(),
		TimeSinceLastNavigation: since,
		CanNavigate:             g.reasonLocked(now) == ReasonNone,
	}
}

func (g *Guard) activeIDsLocked() []string {
	ids := make([]string, 0, len(g.activeAnimations))
	for id := range g.activeAnimations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
