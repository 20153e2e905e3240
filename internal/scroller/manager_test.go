package scroller

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyscroll/internal/clock"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/input"
	"storyscroll/internal/queue"
	"storyscroll/internal/scroll"
	"storyscroll/internal/state"
	"storyscroll/internal/tween"
)

const frame = 20 * time.Millisecond

type harness struct {
	m       *Manager
	clk     *clock.Manual
	surface *scroll.MemorySurface
	mu      sync.Mutex
	changes []int
}

func newHarness(t *testing.T, sections int, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		surface: scroll.NewMemorySurface(100, sections),
	}
	opts := Options{
		Settings: DefaultSettings(),
		Clock:    h.clk,
		Surface:  h.surface,
		Engine:   tween.Timeline{Ease: tween.EaseLinear},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	h.m = New(opts)
	h.m.Mount()
	h.m.OnSectionChange(func(i int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.changes = append(h.changes, i)
	})
	return h
}

func (h *harness) sectionChanges() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.changes...)
}

// wait advances the clock by d in frame steps, running a frame after each step
func (h *harness) wait(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		h.clk.Advance(frame)
		h.m.Advance(h.clk.Now())
	}
}

// settle runs frames until no animation is active
func (h *harness) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if h.m.Info().ActiveAnimation == "" {
			return
		}
		h.clk.Advance(frame)
		h.m.Advance(h.clk.Now())
	}
	t.Fatal("animation did not settle")
}

func TestScenarioNextSectionCommitsOnce(t *testing.T) {
	h := newHarness(t, 3)

	res := h.m.NextSection()
	require.True(t, res.Accepted)
	assert.Equal(t, "section-0-to-1", res.AnimationID)
	assert.Equal(t, 800*time.Millisecond, res.Duration)
	assert.False(t, h.m.CanNavigate())

	h.wait(800 * time.Millisecond)

	assert.Equal(t, []int{1}, h.sectionChanges())
	assert.Equal(t, 1, h.m.State().CurrentSection)
	assert.False(t, h.m.State().IsAnimating)
	assert.Equal(t, 100.0, h.surface.ScrollTop())
	assert.False(t, h.m.CanNavigate(), "cooldown after the animation")

	h.clk.Advance(199 * time.Millisecond)
	assert.False(t, h.m.CanNavigate())
	h.clk.Advance(time.Millisecond)
	assert.True(t, h.m.CanNavigate())
}

func TestScenarioRapidFireCommitsOneTransition(t *testing.T) {
	bus := eventbus.New(nil)
	defer bus.Close()

	var mu sync.Mutex
	var rejectedEvents int
	bus.Subscribe(eventbus.EventNavigationRejected, func(eventbus.DomainEvent) {
		mu.Lock()
		rejectedEvents++
		mu.Unlock()
	})

	h := newHarness(t, 3, func(o *Options) { o.Bus = bus })

	var accepted, rejections int
	for i := 0; i < 10; i++ {
		if h.m.NextSection().Accepted {
			accepted++
		} else {
			rejections++
		}
		h.clk.Advance(10 * time.Millisecond)
		h.m.Advance(h.clk.Now())
	}
	h.settle(t)

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 9, rejections)
	assert.Equal(t, []int{1}, h.sectionChanges())
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return rejectedEvents == 9
	}, time.Second, 10*time.Millisecond)
}

type observerSpy struct {
	destroyed bool
}

func (o *observerSpy) Enable()  {}
func (o *observerSpy) Disable() {}
func (o *observerSpy) Destroy() { o.destroyed = true }

type providerSpy struct {
	mu        sync.Mutex
	follows   int
	syncs     []float64
	paused    bool
	destroyed bool
}

func (p *providerSpy) Follow(float64) { p.mu.Lock(); p.follows++; p.mu.Unlock() }
func (p *providerSpy) Sync(y float64) { p.mu.Lock(); p.syncs = append(p.syncs, y); p.mu.Unlock() }
func (p *providerSpy) Pause()         { p.paused = true }
func (p *providerSpy) Resume()        { p.paused = false }
func (p *providerSpy) Destroy()       { p.destroyed = true }

func TestScenarioEmergencyMidAnimation(t *testing.T) {
	obs := &observerSpy{}
	prov := &providerSpy{}
	h := newHarness(t, 5, func(o *Options) {
		o.Observer = obs
		o.NewProvider = func() (scroll.SmoothScrollProvider, error) { return prov, nil }
	})

	require.True(t, h.m.GotoSection(3, Immediate()).Accepted)
	h.wait(200 * time.Millisecond)
	require.True(t, h.m.NextSection().Accepted)
	h.wait(100 * time.Millisecond)
	require.True(t, h.m.State().IsAnimating)

	h.m.Emergency()

	st := h.m.State()
	assert.Equal(t, 0, st.CurrentSection)
	assert.False(t, st.IsAnimating)
	assert.False(t, st.HasTarget())
	assert.Equal(t, 5, st.SectionCount)
	assert.True(t, st.IsClient)
	assert.Equal(t, 0, h.sectionChanges()[len(h.sectionChanges())-1])
	assert.Empty(t, h.m.Pending())
	assert.Equal(t, 0.0, h.surface.ScrollTop())
	assert.True(t, obs.destroyed)
	assert.True(t, prov.destroyed)
	assert.True(t, h.m.CanNavigate())
}

type panickingEffects struct{}

func (panickingEffects) Refresh() {}
func (panickingEffects) KillAll() { panic("effects registry corrupted") }

func TestEmergencyFallsBackToReload(t *testing.T) {
	reloads := 0
	h := newHarness(t, 3, func(o *Options) {
		o.Effects = panickingEffects{}
		o.Reload = func() { reloads++ }
	})

	require.NotPanics(t, h.m.Emergency)
	assert.Equal(t, 1, reloads)

	// without a reload hook it still must not panic
	h2 := newHarness(t, 3, func(o *Options) { o.Effects = panickingEffects{} })
	assert.NotPanics(t, h2.m.Emergency)
}

func TestDuplicateRequestsAnimateOnce(t *testing.T) {
	h := newHarness(t, 5)

	first := h.m.GotoSection(2)
	h.clk.Advance(50 * time.Millisecond)
	second := h.m.GotoSection(2)

	assert.True(t, first.Accepted)
	assert.False(t, second.Accepted)
	assert.Equal(t, ReasonDuplicate, second.Reason)

	h.settle(t)
	assert.Equal(t, []int{2}, h.sectionChanges())
}

func TestLockedRequestsAreRejected(t *testing.T) {
	h := newHarness(t, 5)

	require.True(t, h.m.GotoSection(2).Accepted)
	for _, target := range []int{4, 1, 3} {
		h.wait(frame)
		res := h.m.GotoSection(target, WithSource(queue.SourceKeyboard))
		assert.False(t, res.Accepted)
		assert.Equal(t, ReasonAnimating, res.Reason)
		assert.Equal(t, "section-0-to-2", h.m.Info().ActiveAnimation)
	}

	h.settle(t)
	assert.Equal(t, []int{2}, h.sectionChanges())
}

func TestForceInterruptsWithoutCommitting(t *testing.T) {
	h := newHarness(t, 5)
	completed := 0

	require.True(t, h.m.GotoSection(2, OnComplete(func() { completed++ })).Accepted)
	h.wait(200 * time.Millisecond)
	midway := h.surface.ScrollTop()
	require.Greater(t, midway, 0.0)

	res := h.m.GotoSection(4, Force())
	require.True(t, res.Accepted)
	assert.Equal(t, "section-0-to-4", res.AnimationID)

	h.settle(t)
	assert.Equal(t, []int{4}, h.sectionChanges())
	assert.Zero(t, completed, "interrupted navigation does not complete")
	assert.Equal(t, 400.0, h.surface.ScrollTop())
}

func TestCriticalPriorityInterrupts(t *testing.T) {
	h := newHarness(t, 5)
	require.True(t, h.m.GotoSection(3).Accepted)
	h.wait(frame)

	res := h.m.GotoSection(1, WithPriority(queue.PriorityCritical), WithSource(queue.SourceRecovery))
	assert.True(t, res.Accepted)
	h.settle(t)
	assert.Equal(t, []int{1}, h.sectionChanges())
}

func TestBoundsAreClamped(t *testing.T) {
	h := newHarness(t, 5)

	res := h.m.GotoSection(-1)
	assert.Equal(t, 0, res.Target)
	assert.Equal(t, ReasonSameSection, res.Reason)

	res = h.m.GotoSection(99)
	assert.True(t, res.Accepted)
	assert.Equal(t, 4, res.Target)
	h.settle(t)
	assert.Equal(t, 4, h.m.State().CurrentSection)

	h.wait(300 * time.Millisecond)
	assert.Equal(t, ReasonSameSection, h.m.NextSection().Reason, "forward at the last section is a no-op")
}

func TestNoSectionsRejects(t *testing.T) {
	h := newHarness(t, 0)
	assert.Equal(t, ReasonNoSections, h.m.NextSection().Reason)
	assert.False(t, h.m.CanNavigate())
}

func TestDurationScalesWithDistance(t *testing.T) {
	h := newHarness(t, 10)

	res := h.m.GotoSection(4)
	assert.Equal(t, 1500*time.Millisecond, res.Duration, "800ms*sqrt(4) is clamped to the max")
	h.settle(t)
	h.wait(300 * time.Millisecond)

	res = h.m.GotoSection(2, WithDuration(50*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, res.Duration)
}

func TestImmediateCommitsSynchronously(t *testing.T) {
	h := newHarness(t, 4)
	done := false

	res := h.m.GotoSection(3, Immediate(), OnComplete(func() { done = true }))
	require.True(t, res.Accepted)
	assert.Zero(t, res.Duration)
	assert.Equal(t, []int{3}, h.sectionChanges())
	assert.Equal(t, 300.0, h.surface.ScrollTop())
	assert.True(t, done)
	assert.False(t, h.m.State().IsAnimating)
	assert.False(t, h.m.CanNavigate(), "cooldown still applies")
}

type holeySurface struct {
	*scroll.MemorySurface
	missing int
}

func (s holeySurface) SectionOffset(i int) (float64, bool) {
	if i == s.missing {
		return 0, false
	}
	return s.MemorySurface.SectionOffset(i)
}

func TestMissingSectionReleasesLock(t *testing.T) {
	mem := scroll.NewMemorySurface(100, 4)
	h := newHarness(t, 0, func(o *Options) { o.Surface = holeySurface{MemorySurface: mem, missing: 2} })
	h.surface = mem

	res := h.m.GotoSection(2)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonMissingTarget, res.Reason)

	st := h.m.State()
	assert.False(t, st.IsAnimating)
	assert.False(t, st.HasTarget())
	assert.False(t, h.m.Guard().IsAnimating())
	assert.Empty(t, h.sectionChanges())

	h.clk.Advance(200 * time.Millisecond)
	assert.True(t, h.m.GotoSection(1).Accepted)
}

type offTargetEngine struct{}

func (offTargetEngine) Name() string { return "off" }
func (offTargetEngine) Start(from, to float64, start time.Time, d time.Duration) tween.Tween {
	return offTween{to: to, d: d}
}

type offTween struct {
	to float64
	d  time.Duration
}

func (t offTween) Sample(time.Time) (float64, bool) { return t.to - 37, true }
func (t offTween) From() float64                    { return 0 }
func (t offTween) To() float64                      { return t.to }
func (t offTween) Duration() time.Duration          { return t.d }

func TestCompletionSnapCorrects(t *testing.T) {
	h := newHarness(t, 3, func(o *Options) { o.Engine = offTargetEngine{} })

	require.True(t, h.m.GotoSection(2).Accepted)
	h.wait(frame)

	assert.Equal(t, 200.0, h.surface.ScrollTop())
	assert.Equal(t, 200.0, h.m.State().ScrollPosition)
}

func TestTweenIsTheOnlyWriterWhileAnimating(t *testing.T) {
	prov := &providerSpy{}
	h := newHarness(t, 3, func(o *Options) {
		o.NewProvider = func() (scroll.SmoothScrollProvider, error) { return prov, nil }
	})

	h.m.NextSection()
	h.wait(400 * time.Millisecond)
	prov.mu.Lock()
	assert.Equal(t, 20, prov.follows)
	assert.Empty(t, prov.syncs, "provider only follows during the tween")
	prov.mu.Unlock()

	h.settle(t)
	prov.mu.Lock()
	assert.Equal(t, []float64{100}, prov.syncs)
	prov.mu.Unlock()
}

func TestProviderFailureFallsBackToNative(t *testing.T) {
	h := newHarness(t, 3, func(o *Options) {
		o.NewProvider = func() (scroll.SmoothScrollProvider, error) { return nil, errors.New("no webgl") }
	})
	require.True(t, h.m.NextSection().Accepted)
	h.settle(t)
	assert.Equal(t, 1, h.m.State().CurrentSection)
}

func TestScrollActivityGatesNavigation(t *testing.T) {
	h := newHarness(t, 3)

	h.m.MarkScrollStart()
	assert.True(t, h.m.State().IsScrolling)
	assert.Equal(t, ReasonScrolling, h.m.NextSection().Reason)

	h.m.MarkScrollEnd()
	h.wait(140 * time.Millisecond)
	assert.True(t, h.m.State().IsScrolling)
	h.wait(20 * time.Millisecond)
	assert.False(t, h.m.State().IsScrolling)

	assert.True(t, h.m.NextSection(WithSource(queue.SourceWheel)).Accepted)
}

func TestHandleGesture(t *testing.T) {
	h := newHarness(t, 3)

	assert.Equal(t, ReasonNoIntent, h.m.HandleGesture(input.IntentNone, queue.SourceKeyboard).Reason)
	assert.Equal(t, ReasonSameSection, h.m.HandleGesture(input.IntentBackward, queue.SourceKeyboard).Reason)

	res := h.m.HandleGesture(input.IntentLast, queue.SourceKeyboard)
	require.True(t, res.Accepted)
	assert.Equal(t, 2, res.Target)
	h.settle(t)
	h.wait(200 * time.Millisecond)

	res = h.m.HandleGesture(input.IntentForward, queue.SourceWheel)
	assert.Equal(t, ReasonSameSection, res.Reason)

	res = h.m.HandleGesture(input.IntentFirst, queue.SourceKeyboard)
	assert.True(t, res.Accepted)
}

func TestGestureObserverDrivesManager(t *testing.T) {
	h := newHarness(t, 3)
	obs := input.NewGestureObserver(input.ObserverConfig{WheelThreshold: 3, GestureTimeout: 100 * time.Millisecond},
		h.clk, nil, h.m, func(i input.Intent) { h.m.HandleGesture(i, queue.SourceWheel) })
	h.m.AttachObserver(obs)

	obs.Wheel(2)
	obs.Wheel(2)
	require.Equal(t, "section-0-to-1", h.m.Info().ActiveAnimation)
	assert.True(t, h.m.State().IsScrolling)

	// momentum keeps arriving while the animation runs
	for i := 0; i < 5; i++ {
		h.wait(frame)
		obs.Wheel(1)
	}
	h.settle(t)
	h.wait(400 * time.Millisecond)

	assert.Equal(t, []int{1}, h.sectionChanges())
	assert.False(t, h.m.State().IsScrolling)
	assert.True(t, h.m.CanNavigate())
}

func TestForceSyncMidAnimation(t *testing.T) {
	h := newHarness(t, 4)

	require.True(t, h.m.GotoSection(2).Accepted)
	h.wait(100 * time.Millisecond)

	h.m.ForceSync()

	st := h.m.State()
	assert.Equal(t, 2, st.CurrentSection)
	assert.False(t, st.IsAnimating)
	assert.Equal(t, 200.0, h.surface.ScrollTop())
	assert.True(t, h.m.CanNavigate())
	assert.Equal(t, []int{2}, h.sectionChanges())
	assert.Empty(t, h.m.Info().ActiveAnimation)
}

func TestQueueWhileLockedRunsAfterCooldown(t *testing.T) {
	h := newHarness(t, 5, func(o *Options) { o.Settings.QueueWhileLocked = true })

	require.True(t, h.m.GotoSection(1).Accepted)
	h.wait(frame)
	res := h.m.GotoSection(3, WithSource(queue.SourceNarrative))
	assert.Equal(t, ReasonQueued, res.Reason)
	assert.Len(t, h.m.Pending(), 1)

	h.settle(t)
	h.wait(220 * time.Millisecond)
	h.settle(t)

	assert.Equal(t, []int{1, 3}, h.sectionChanges())
	assert.Empty(t, h.m.Pending())
}

func TestSetPathnameResetsScrollState(t *testing.T) {
	h := newHarness(t, 4)
	h.m.SetPathname("/chapter-1")
	h.m.GotoSection(3, Immediate())

	h.m.SetPathname("/chapter-2")
	st := h.m.State()
	assert.Equal(t, 0, st.CurrentSection)
	assert.Equal(t, "/chapter-2", st.Pathname)
	assert.Equal(t, 4, st.SectionCount)
	assert.True(t, st.IsClient)
}

func TestResizeReseatsCurrentSection(t *testing.T) {
	h := newHarness(t, 3)
	h.m.GotoSection(2, Immediate())

	h.surface.SetHeights([]float64{40, 40, 40, 40})
	h.m.Resize()

	assert.Equal(t, 80.0, h.surface.ScrollTop())
	assert.Equal(t, 4, h.m.State().SectionCount)
}

func TestResizeDuringAnimationLandsOnNewOffset(t *testing.T) {
	h := newHarness(t, 4)
	require.True(t, h.m.GotoSection(2).Accepted)
	h.wait(5 * frame)

	before := h.surface.ScrollTop()
	h.surface.SetHeights([]float64{150, 150, 150, 150})
	h.m.Resize()
	assert.Equal(t, before, h.surface.ScrollTop(), "resize does not jump the running tween")

	h.settle(t)
	st := h.m.State()
	assert.Equal(t, 2, st.CurrentSection)
	assert.Equal(t, 300.0, h.surface.ScrollTop())
	assert.Equal(t, 300.0, st.ScrollPosition)
	assert.Equal(t, 2, h.m.SectionAt(h.surface.ScrollTop()))
	assert.Equal(t, []int{2}, h.sectionChanges())
}

func TestShrinkDuringAnimationReportsCommittedSection(t *testing.T) {
	h := newHarness(t, 5)
	require.True(t, h.m.GotoSection(4).Accepted)
	h.wait(3 * frame)

	h.surface.SetHeights([]float64{100, 100})
	h.m.SetSectionCount(2)
	h.settle(t)

	st := h.m.State()
	assert.Equal(t, 1, st.CurrentSection)
	assert.Equal(t, 100.0, h.surface.ScrollTop())
	assert.Equal(t, []int{1}, h.sectionChanges(), "callbacks see the clamped section")
}

func TestResizeShrinkDuringAnimationClampsTarget(t *testing.T) {
	h := newHarness(t, 5)
	require.True(t, h.m.GotoSection(4).Accepted)
	h.wait(3 * frame)

	h.surface.SetHeights([]float64{100, 100, 100})
	h.m.Resize()
	assert.Equal(t, 2, h.m.State().TargetSection)

	h.settle(t)
	assert.Equal(t, 2, h.m.State().CurrentSection)
	assert.Equal(t, 200.0, h.surface.ScrollTop())
	assert.Equal(t, []int{2}, h.sectionChanges())
}

// offsetSurface starts the first section below a page header
type offsetSurface struct {
	*scroll.MemorySurface
	header float64
}

func (s offsetSurface) SectionOffset(i int) (float64, bool) {
	off, ok := s.MemorySurface.SectionOffset(i)
	return off + s.header, ok
}

func TestEmergencyReturnsToFirstSectionOffset(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	surface := offsetSurface{MemorySurface: scroll.NewMemorySurface(100, 4), header: 50}
	m := New(Options{Clock: clk, Surface: surface, Engine: tween.Timeline{Ease: tween.EaseLinear}})
	m.Mount()
	m.GotoSection(3, Immediate())
	require.Equal(t, 350.0, surface.ScrollTop())

	m.Emergency()
	assert.Equal(t, 50.0, surface.ScrollTop())
	assert.Equal(t, 50.0, m.State().ScrollPosition)
	assert.Equal(t, 0, m.State().CurrentSection)
}

func TestSetVisiblePausesProvider(t *testing.T) {
	prov := &providerSpy{}
	h := newHarness(t, 3, func(o *Options) {
		o.NewProvider = func() (scroll.SmoothScrollProvider, error) { return prov, nil }
	})

	h.m.SetVisible(false)
	assert.True(t, prov.paused)
	assert.False(t, h.m.Visible())
	h.m.SetVisible(true)
	assert.False(t, prov.paused)
}

func TestSnapPolicyOnScrollEnd(t *testing.T) {
	h := newHarness(t, 3, func(o *Options) { o.Snap = NearestSnap{} })

	h.m.MarkScrollStart()
	h.surface.ScrollTo(130)
	h.m.MarkScrollEnd()
	h.wait(160 * time.Millisecond)
	h.settle(t)

	assert.Equal(t, []int{1}, h.sectionChanges())
	assert.Equal(t, 100.0, h.surface.ScrollTop())
}

func TestNearestSnapFollowsVelocity(t *testing.T) {
	surface := scroll.NewMemorySurface(100, 4)
	s := state.Initial()
	s.SectionCount = 4

	idx, ok := NearestSnap{VelocityThreshold: 500}.OnScrollEnd(120, 800, s, surface)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, _ = NearestSnap{VelocityThreshold: 500}.OnScrollEnd(120, 100, s, surface)
	assert.Equal(t, 1, idx)

	idx, _ = NearestSnap{VelocityThreshold: 500}.OnScrollEnd(180, -900, s, surface)
	assert.Equal(t, 1, idx)

	s.IsAnimating = true
	_, ok = NearestSnap{}.OnScrollEnd(120, 0, s, surface)
	assert.False(t, ok)
}

func TestStateListenerAndPanickingCallbacks(t *testing.T) {
	h := newHarness(t, 3)
	var states []state.ScrollState
	h.m.OnStateChange(func(s state.ScrollState) { states = append(states, s) })
	h.m.OnSectionChange(func(int) { panic("consumer bug") })

	assert.NotPanics(t, func() {
		h.m.GotoSection(1, Immediate())
	})
	require.NotEmpty(t, states)
	assert.Equal(t, 1, states[len(states)-1].CurrentSection)
	assert.Equal(t, []int{1}, h.sectionChanges())
}

func TestCapturedCanNavigateSeesLiveState(t *testing.T) {
	h := newHarness(t, 3)
	canNavigate := h.m.CanNavigate

	require.True(t, canNavigate())
	h.m.NextSection()
	assert.False(t, canNavigate())
	h.settle(t)
	h.clk.Advance(200 * time.Millisecond)
	assert.True(t, canNavigate())
}
