package scroller

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/debounce"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/input"
	"storyscroll/internal/queue"
	"storyscroll/internal/state"
	"storyscroll/internal/tween"
)

// Reason explains a rejected navigation
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonCooldown      Reason = Reason(debounce.ReasonCooldown)
	ReasonAnimating     Reason = Reason(debounce.ReasonAnimating)
	ReasonScrolling     Reason = Reason(debounce.ReasonScrolling)
	ReasonDuplicate     Reason = "duplicate"
	ReasonSameSection   Reason = "same-section"
	ReasonNoSections    Reason = "no-sections"
	ReasonMissingTarget Reason = "missing-target"
	ReasonNoIntent      Reason = "no-intent"
	ReasonQueued        Reason = "queued"
	ReasonUnknownName   Reason = "unknown-section"
	ReasonDisabled      Reason = "disabled"
)

// Result reports what happened to a navigation request. Navigation never
// returns an error; a rejection is an ordinary outcome.
type Result struct {
	Accepted    bool
	Target      int // clamped target
	Reason      Reason
	AnimationID string
	RequestID   string
	Duration    time.Duration
}

func rejected(target int, reason Reason) Result {
	return Result{Target: target, Reason: reason}
}

type gotoOptions struct {
	duration   time.Duration
	immediate  bool
	force      bool
	onComplete func()
	source     queue.Source
	priority   queue.Priority
}

// GotoOption customizes a single GotoSection call
type GotoOption func(*gotoOptions)

// WithDuration overrides the distance-scaled duration
func WithDuration(d time.Duration) GotoOption {
	return func(o *gotoOptions) { o.duration = d }
}

// Immediate jumps without a tween
func Immediate() GotoOption {
	return func(o *gotoOptions) { o.immediate = true }
}

// Force bypasses the gate and interrupts an in-flight animation
func Force() GotoOption {
	return func(o *gotoOptions) { o.force = true }
}

// OnComplete runs after the navigation commits. It does not run for
// rejected or interrupted navigations.
func OnComplete(fn func()) GotoOption {
	return func(o *gotoOptions) { o.onComplete = fn }
}

func WithSource(s queue.Source) GotoOption {
	return func(o *gotoOptions) { o.source = s }
}

// WithPriority sets the request priority. Critical interrupts like Force.
func WithPriority(p queue.Priority) GotoOption {
	return func(o *gotoOptions) { o.priority = p }
}

func animationID(from, to int) string {
	return fmt.Sprintf("section-%d-to-%d", from, to)
}

// GotoSection navigates to index. The index is clamped, then deduplicated,
// gated, checked against the current section, and finally animated.
func (m *Manager) GotoSection(index int, opts ...GotoOption) Result {
	o := gotoOptions{source: queue.SourceProgrammatic, priority: queue.PriorityNormal}
	for _, opt := range opts {
		opt(&o)
	}

	var n notes
	m.mu.Lock()
	res := m.gotoLocked(&n, index, o)
	m.mu.Unlock()
	m.flush(&n)
	return res
}

func (m *Manager) gotoLocked(n *notes, index int, o gotoOptions) Result {
	st := m.store.State()
	if st.SectionCount == 0 {
		return m.reject(n, index, o.source, ReasonNoSections)
	}
	target := st.Clamp(index)

	req, created := m.queue.Enqueue(queue.Request{
		Target:   target,
		Source:   o.source,
		Priority: o.priority,
		Options: queue.Options{
			Duration:   o.duration,
			Immediate:  o.immediate,
			Force:      o.force,
			OnComplete: o.onComplete,
		},
	})
	if !created {
		return m.reject(n, target, o.source, ReasonDuplicate)
	}

	force := o.force || o.priority == queue.PriorityCritical
	if !force {
		if reason := m.guard.Reason(); reason != debounce.ReasonNone {
			if reason == debounce.ReasonAnimating && m.settings.QueueWhileLocked {
				m.log.Debug("navigation queued", zap.Int("target", target), zap.String("request", req.ID))
				return Result{Target: target, Reason: ReasonQueued, RequestID: req.ID}
			}
			m.queue.Remove(req.ID)
			return m.reject(n, target, o.source, Reason(reason))
		}
	}

	if m.active == nil && target == st.CurrentSection {
		m.queue.Remove(req.ID)
		return m.reject(n, target, o.source, ReasonSameSection)
	}

	m.queue.Remove(req.ID)
	return m.startLocked(n, req)
}

func (m *Manager) reject(n *notes, target int, source queue.Source, reason Reason) Result {
	m.log.Debug("navigation rejected",
		zap.Int("target", target),
		zap.String("source", string(source)),
		zap.String("reason", string(reason)))
	n.add(func() {
		m.publish(eventbus.NavigationRejectedEvent{Target: target, Source: string(source), Reason: string(reason)})
	})
	return rejected(target, reason)
}

// startLocked locks the controller and starts the tween toward req.Target.
// An in-flight animation is interrupted first.
func (m *Manager) startLocked(n *notes, req *queue.Request) Result {
	now := m.clk.Now()
	if m.active != nil {
		// no ForceSync to the old target: the new tween starts from the current pixel position
		m.interruptLocked(n, "preempted")
	}

	st := m.store.State()
	from := st.CurrentSection
	target := req.Target
	id := animationID(from, target)

	if req.Options.Immediate {
		m.dispatchLocked(n, state.GotoSection{Index: target, Timestamp: now})
	} else {
		m.dispatchLocked(n, state.StartAnimation{Target: target, At: now})
	}
	m.guard.MarkAnimationStart(id)

	offset, ok := m.surface.SectionOffset(target)
	if !ok {
		m.log.Warn("section not found, releasing navigation lock",
			zap.Int("target", target), zap.String("animation", id))
		if req.Options.Immediate {
			// GotoSection moved the index eagerly; put it back
			m.dispatchLocked(n, state.SetCurrentIndex{Index: from})
		}
		m.dispatchLocked(n, state.EndAnimation{})
		m.guard.MarkAnimationEnd(id)
		n.add(func() {
			m.publish(eventbus.NavigationAbortedEvent{AnimationID: id, Target: target, Reason: string(ReasonMissingTarget)})
		})
		return rejected(target, ReasonMissingTarget)
	}

	var d time.Duration
	switch {
	case req.Options.Immediate:
		d = 0
	case req.Options.Duration > 0:
		d = req.Options.Duration
	default:
		d = tween.ScaledDuration(m.settings.BaseDuration, m.settings.MinDuration, m.settings.MaxDuration, target-from)
		if d == 0 {
			// interrupted on the way back to the current section
			d = m.settings.MinDuration
		}
	}

	m.active = &animation{
		id:         id,
		from:       from,
		to:         target,
		offset:     offset,
		source:     req.Source,
		tween:      m.engine.Start(m.surface.ScrollTop(), offset, now, d),
		budget:     d,
		onComplete: req.Options.OnComplete,
	}

	m.log.Debug("navigation started",
		zap.String("animation", id),
		zap.String("request", req.ID),
		zap.String("source", string(req.Source)),
		zap.Duration("duration", d))
	source := string(req.Source)
	n.add(func() {
		m.publish(eventbus.NavigationStartedEvent{AnimationID: id, From: from, To: target, Source: source})
	})

	if d == 0 {
		m.stepLocked(n, now)
	}

	return Result{Accepted: true, Target: target, AnimationID: id, RequestID: req.ID, Duration: d}
}

// stepLocked writes one tween frame. While the tween runs the manager is the
// only writer and the provider follows.
func (m *Manager) stepLocked(n *notes, now time.Time) {
	a := m.active
	y, done := a.tween.Sample(now)
	m.surface.ScrollTo(y)
	m.provider.Follow(y)
	if done {
		m.completeLocked(n, now)
	}
}

// completeLocked commits the animation. The landing offset is read again
// from the surface since the layout or section count may have changed
// while the tween ran.
func (m *Manager) completeLocked(n *notes, now time.Time) {
	a := m.active
	m.active = nil

	next := m.dispatchLocked(n, state.CommitSection{Index: a.to, At: now})
	target := a.offset
	if off, ok := m.surface.SectionOffset(next.CurrentSection); ok {
		target = off
	}

	actual := m.surface.ScrollTop()
	if math.Abs(actual-target) > m.settings.CompletionTolerance {
		m.log.Debug("snap-correcting final position",
			zap.String("animation", a.id),
			zap.Float64("actual", actual),
			zap.Float64("target", target))
		m.surface.ScrollTo(target)
	}
	m.provider.Sync(target)

	m.dispatchLocked(n, state.RecordScrollPosition{Position: target})
	m.guard.MarkAnimationEnd(a.id)

	m.log.Debug("navigation committed", zap.String("animation", a.id), zap.Int("section", next.CurrentSection))
	m.sectionChanged(n, a.from, next.CurrentSection)
	if a.onComplete != nil {
		done := a.onComplete
		n.add(func() { m.safe("onComplete", done) })
	}
}

// retargetLocked points the in-flight tween at the target's current offset
// after the layout moved. The tween restarts from the current position and
// keeps what is left of the original duration.
func (m *Manager) retargetLocked(n *notes, now time.Time) {
	a := m.active
	st := m.store.State()
	if st.SectionCount == 0 {
		return
	}
	if to := st.Clamp(a.to); to != a.to {
		a.to = to
		m.dispatchLocked(n, state.SetTargetSection{Index: to})
	}
	off, ok := m.surface.SectionOffset(a.to)
	if !ok || off == a.offset {
		return
	}

	elapsed := now.Sub(st.AnimationStartedAt)
	remaining := a.budget - elapsed
	if remaining < m.settings.MinDuration {
		remaining = m.settings.MinDuration
	}
	a.offset = off
	a.tween = m.engine.Start(m.surface.ScrollTop(), off, now, remaining)
	a.budget = elapsed + remaining
	m.log.Debug("navigation retargeted",
		zap.String("animation", a.id),
		zap.Float64("offset", off),
		zap.Duration("remaining", remaining))
}

// interruptLocked stops the in-flight tween where it is. The section is not
// committed, onSectionChange does not fire, and the provider is re-synced to
// the current pixel position so the next tween starts from there.
func (m *Manager) interruptLocked(n *notes, reason string) {
	a := m.active
	m.active = nil
	y := m.surface.ScrollTop()
	m.provider.Sync(y)
	m.effects.Refresh()
	m.dispatchLocked(n, state.EndAnimation{})
	m.guard.MarkAnimationEnd(a.id)

	m.log.Debug("navigation interrupted", zap.String("animation", a.id), zap.String("reason", reason))
	n.add(func() {
		m.publish(eventbus.NavigationAbortedEvent{AnimationID: a.id, Target: a.to, Reason: reason})
	})
}

// NextSection navigates one section forward
func (m *Manager) NextSection(opts ...GotoOption) Result {
	return m.GotoSection(m.store.State().CurrentSection+1, opts...)
}

// PrevSection navigates one section back
func (m *Manager) PrevSection(opts ...GotoOption) Result {
	return m.GotoSection(m.store.State().CurrentSection-1, opts...)
}

func (m *Manager) FirstSection(opts ...GotoOption) Result {
	return m.GotoSection(0, opts...)
}

func (m *Manager) LastSection(opts ...GotoOption) Result {
	return m.GotoSection(m.store.State().SectionCount-1, opts...)
}

// HandleGesture resolves a directional intent against the current section.
// Gestures past either end are no-ops.
func (m *Manager) HandleGesture(intent input.Intent, source queue.Source) Result {
	st := m.store.State()
	if intent == input.IntentNone {
		return rejected(st.CurrentSection, ReasonNoIntent)
	}
	target := intent.Target(st.CurrentSection, st.SectionCount)
	if target == st.CurrentSection && m.activeTarget() < 0 {
		m.log.Debug("gesture at boundary", zap.Stringer("intent", intent), zap.Int("section", target))
		return rejected(target, ReasonSameSection)
	}
	return m.GotoSection(target, WithSource(source))
}

func (m *Manager) activeTarget() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return -1
	}
	return m.active.to
}

// Advance runs one animation frame at now: it samples the active tween,
// settles the scroll fall edge and starts queued requests.
func (m *Manager) Advance(now time.Time) {
	m.mu.Lock()
	obs := m.observer
	m.mu.Unlock()
	if t, ok := obs.(interface{ Tick() }); ok {
		t.Tick()
	}

	var n notes
	var snapTo = -1

	m.mu.Lock()
	if m.active != nil {
		m.stepLocked(&n, now)
	} else {
		snapTo = m.idleLocked(&n, now)
	}
	m.mu.Unlock()
	m.flush(&n)

	if snapTo >= 0 {
		m.GotoSection(snapTo, WithSource(queue.SourceProgrammatic))
	}
}

// idleLocked handles a frame with no active tween and returns a snap target or -1
func (m *Manager) idleLocked(n *notes, now time.Time) int {
	pos := m.surface.ScrollTop()
	if !m.lastPosAt.IsZero() {
		if dt := now.Sub(m.lastPosAt).Seconds(); dt > 0 {
			m.velocity = (pos - m.lastPos) / dt
		}
	}
	m.lastPos, m.lastPosAt = pos, now

	st := m.store.State()
	snapTo := -1
	if st.IsScrolling && !m.guard.IsScrolling() {
		st = m.dispatchLocked(n, state.EndScrolling{})
		if m.snap != nil {
			if idx, ok := m.snap.OnScrollEnd(pos, m.velocity, st, m.surface); ok {
				snapTo = idx
			}
		}
	}

	if snapTo < 0 && m.queue.Len() > 0 && m.guard.CanNavigate() {
		if req := m.queue.Dequeue(); req != nil {
			if st.Clamp(req.Target) == st.CurrentSection {
				m.log.Debug("queued request already satisfied", zap.String("request", req.ID))
			} else {
				m.startLocked(n, req)
			}
		}
	}
	return snapTo
}

// MarkScrollStart records raw scroll activity. Implements input.ScrollSignals.
func (m *Manager) MarkScrollStart() {
	m.guard.MarkScrollStart()
	var n notes
	m.mu.Lock()
	if !m.store.State().IsScrolling {
		m.dispatchLocked(&n, state.StartScrolling{At: m.clk.Now()})
	} else {
		m.dispatchLocked(&n, state.UpdateScrollTime{At: m.clk.Now()})
	}
	m.mu.Unlock()
	m.flush(&n)
}

// MarkScrollEnd schedules the scroll fall edge; Advance settles it
func (m *Manager) MarkScrollEnd() {
	m.guard.MarkScrollEnd()
}
