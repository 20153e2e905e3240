package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyscroll/internal/clock"
)

func newGuard(t *testing.T, mutate ...func(*Config)) (*Guard, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, clk, nil), clk
}

func TestFreshGuardAllowsNavigation(t *testing.T) {
	g, _ := newGuard(t)
	assert.True(t, g.CanNavigate())
	assert.Equal(t, ReasonNone, g.Reason())
}

func TestAnimationIdsAreASet(t *testing.T) {
	g, _ := newGuard(t)

	g.MarkAnimationStart("section-0-to-1")
	g.MarkAnimationStart("section-0-to-1")
	g.MarkAnimationStart("header")
	require.True(t, g.IsAnimating())

	g.MarkAnimationEnd("section-0-to-1")
	assert.True(t, g.IsAnimating(), "header is still running")

	g.MarkAnimationEnd("header")
	assert.False(t, g.IsAnimating())
}

func TestEmptyIdIsDefault(t *testing.T) {
	g, _ := newGuard(t)
	g.MarkAnimationStart("")
	assert.Equal(t, []string{DefaultAnimationID}, g.DebugInfo().ActiveAnimations)
	g.MarkAnimationEnd("")
	assert.False(t, g.IsAnimating())
}

func TestCooldownStartsWhenAnimationEnds(t *testing.T) {
	g, clk := newGuard(t)

	g.MarkAnimationStart("a")
	clk.Advance(1500 * time.Millisecond)
	assert.Equal(t, ReasonAnimating, g.Reason())

	g.MarkAnimationEnd("a")
	assert.False(t, g.CanNavigate())
	assert.Equal(t, ReasonCooldown, g.Reason())

	clk.Advance(199 * time.Millisecond)
	assert.False(t, g.CanNavigate(), "never before the cooldown elapses")

	clk.Advance(time.Millisecond)
	assert.True(t, g.CanNavigate())
}

func TestScrollEndIsDebounced(t *testing.T) {
	g, clk := newGuard(t)

	g.MarkScrollStart()
	assert.Equal(t, ReasonScrolling, g.Reason())

	g.MarkScrollEnd()
	clk.Advance(100 * time.Millisecond)
	assert.True(t, g.IsScrolling())

	// a new scroll start cancels the pending fall edge
	g.MarkScrollStart()
	clk.Advance(500 * time.Millisecond)
	assert.True(t, g.IsScrolling())

	g.MarkScrollEnd()
	clk.Advance(149 * time.Millisecond)
	assert.True(t, g.IsScrolling())
	clk.Advance(time.Millisecond)
	assert.False(t, g.IsScrolling())
	assert.True(t, g.CanNavigate())
}

func TestScrollEndWithoutStartIsNoop(t *testing.T) {
	g, _ := newGuard(t)
	g.MarkScrollEnd()
	assert.False(t, g.IsScrolling())
}

func TestOverlapAndMomentumCanBeDisabled(t *testing.T) {
	g, _ := newGuard(t, func(c *Config) {
		c.PreventOverlap = false
		c.TrackMomentum = false
		c.NavigationCooldown = 0
	})

	g.MarkAnimationStart("a")
	g.MarkScrollStart()
	assert.True(t, g.CanNavigate())
}

func TestCapturedMethodValueSeesLiveState(t *testing.T) {
	g, clk := newGuard(t)
	canNavigate := g.CanNavigate // captured before any state change

	require.True(t, canNavigate())
	g.MarkAnimationStart("section-1-to-2")
	assert.False(t, canNavigate())

	g.MarkAnimationEnd("section-1-to-2")
	assert.False(t, canNavigate())
	clk.Advance(200 * time.Millisecond)
	assert.True(t, canNavigate())
}

func TestForceResetClearsEverything(t *testing.T) {
	g, _ := newGuard(t)
	g.MarkAnimationStart("a")
	g.MarkAnimationStart("b")
	g.MarkScrollStart()

	g.ForceReset()

	info := g.DebugInfo()
	assert.False(t, info.IsAnimating)
	assert.False(t, info.IsScrolling)
	assert.Empty(t, info.ActiveAnimations)
	assert.Zero(t, info.TimeSinceLastNavigation)
	assert.True(t, info.CanNavigate)
}

func TestDebugInfoReportsTimeSinceNavigation(t *testing.T) {
	g, clk := newGuard(t)
	g.MarkAnimationStart("x")
	clk.Advance(40 * time.Millisecond)

	info := g.DebugInfo()
	assert.Equal(t, 40*time.Millisecond, info.TimeSinceLastNavigation)
	assert.Equal(t, []string{"x"}, info.ActiveAnimations)
	assert.False(t, info.CanNavigate)
}
