// Package scroller owns the physical scroll position. Every navigation
// passes through Manager.GotoSection, which gates it, locks the controller,
// drives one tween frame by frame and commits the section on completion.
package scroller

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/clock"
	"storyscroll/internal/config"
	"storyscroll/internal/debounce"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/queue"
	"storyscroll/internal/scroll"
	"storyscroll/internal/state"
	"storyscroll/internal/tween"
)

// Settings are the manager's tunables
type Settings struct {
	Debounce            debounce.Config
	BaseDuration        time.Duration
	MinDuration         time.Duration
	MaxDuration         time.Duration
	CompletionTolerance float64 // pixels
	DedupeWindow        time.Duration
	// QueueWhileLocked keeps requests rejected for "animating" pending and
	// runs them once the gate opens. Off by default: locked requests are dropped.
	QueueWhileLocked bool
}

// DefaultSettings mirrors config.DefaultConfig
func DefaultSettings() Settings {
	return SettingsFromConfig(config.DefaultConfig())
}

// SettingsFromConfig extracts the manager settings from the app config
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Debounce: debounce.Config{
			NavigationCooldown: cfg.Debounce.NavigationCooldown.Duration,
			AnimationDuration:  cfg.Debounce.AnimationDuration.Duration,
			ScrollEndDelay:     cfg.Debounce.ScrollEndDelay.Duration,
			PreventOverlap:     cfg.Debounce.PreventOverlap,
			TrackMomentum:      cfg.Debounce.TrackMomentum,
		},
		BaseDuration:        cfg.Animation.BaseDuration.Duration,
		MinDuration:         cfg.Animation.MinDuration.Duration,
		MaxDuration:         cfg.Animation.MaxDuration.Duration,
		CompletionTolerance: cfg.Animation.CompletionTolerance,
		DedupeWindow:        cfg.Queue.DedupeWindow.Duration,
	}
}

// SectionIndex resolves symbolic section names
type SectionIndex interface {
	IndexOf(name string) (int, bool)
}

// Options wires the manager's collaborators. Only Surface is required.
type Options struct {
	Settings Settings
	Clock    clock.Clock
	Logger   *zap.Logger
	Bus      eventbus.EventBus
	Surface  scroll.Surface
	// NewProvider builds the smooth-scroll provider. A nil func or an error
	// falls back to native scrolling.
	NewProvider func() (scroll.SmoothScrollProvider, error)
	Effects     scroll.EffectsRefresher
	Observer    scroll.InputObserver
	Engine      tween.Engine
	Snap        SnapPolicy
	// Reload asks the host to reload; the last resort of Emergency
	Reload   func()
	Sections SectionIndex
}

type animation struct {
	id         string
	from, to   int
	offset     float64
	source     queue.Source
	tween      tween.Tween
	budget     time.Duration // planned length, measured from the animation start
	onComplete func()
}

// Manager is the scroll/animation controller
type Manager struct {
	mu sync.Mutex

	settings Settings
	clk      clock.Clock
	log      *zap.Logger
	bus      eventbus.EventBus
	surface  scroll.Surface
	provider scroll.SmoothScrollProvider
	effects  scroll.EffectsRefresher
	observer scroll.InputObserver
	engine   tween.Engine
	snap     SnapPolicy
	reload   func()
	sections SectionIndex

	guard *debounce.Guard
	store *state.Store
	queue *queue.Queue

	active  *animation
	visible bool

	// idle velocity sampling for the snap policy
	lastPos   float64
	lastPosAt time.Time
	velocity  float64

	cbMu             sync.RWMutex
	sectionListeners []func(int)
	stateListeners   []func(state.ScrollState)
}

// New creates a manager. The state starts unmounted with the surface's section count.
func New(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := clock.OrReal(opts.Clock)
	settings := opts.Settings
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}

	engine := opts.Engine
	if engine == nil {
		engine = tween.Timeline{Ease: tween.EaseSmoothstep}
	}
	effects := opts.Effects
	if effects == nil {
		effects = scroll.NopEffects{}
	}

	m := &Manager{
		settings: settings,
		clk:      clk,
		log:      log,
		bus:      opts.Bus,
		surface:  opts.Surface,
		effects:  effects,
		observer: opts.Observer,
		engine:   engine,
		snap:     opts.Snap,
		reload:   opts.Reload,
		sections: opts.Sections,
		guard:    debounce.New(settings.Debounce, clk, log),
		store:    state.NewStore(),
		queue:    queue.New(settings.DedupeWindow, clk, log),
		visible:  true,
	}
	m.provider = m.initProvider(opts.NewProvider)
	m.store.Dispatch(state.SetSectionCount{Count: m.surface.SectionCount()})
	return m
}

func (m *Manager) initProvider(build func() (scroll.SmoothScrollProvider, error)) scroll.SmoothScrollProvider {
	if build == nil {
		return scroll.NativeProvider{}
	}
	p, err := build()
	if err != nil || p == nil {
		m.log.Warn("smooth scroll provider unavailable, using native scrolling", zap.Error(err))
		return scroll.NativeProvider{}
	}
	return p
}

// OnSectionChange registers a callback fired once per committed navigation
func (m *Manager) OnSectionChange(fn func(int)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.sectionListeners = append(m.sectionListeners, fn)
}

// OnStateChange registers a callback fired after any operation that changed state
func (m *Manager) OnStateChange(fn func(state.ScrollState)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.stateListeners = append(m.stateListeners, fn)
}

// State returns a snapshot of the scroll state
func (m *Manager) State() state.ScrollState {
	return m.store.State()
}

// CanNavigate is the single authoritative gate. It is a pure read.
func (m *Manager) CanNavigate() bool {
	return m.store.State().SectionCount > 0 && m.guard.CanNavigate()
}

// Guard exposes the debounce guard, mainly for diagnostics
func (m *Manager) Guard() *debounce.Guard {
	return m.guard
}

// Pending returns the queued requests
func (m *Manager) Pending() []queue.Request {
	return m.queue.Pending()
}

// ScrollTop reads the physical position
func (m *Manager) ScrollTop() float64 {
	return m.surface.ScrollTop()
}

// SectionAt maps a physical offset to the nearest section
func (m *Manager) SectionAt(y float64) int {
	return scroll.SectionAt(m.surface, y)
}

func (m *Manager) SectionOffset(i int) (float64, bool) {
	return m.surface.SectionOffset(i)
}

func (m *Manager) SectionHeight(i int) float64 {
	return scroll.SectionHeight(m.surface, i)
}

// ActiveDuration is how long the current animation is allowed to run before
// it counts as stuck: the tween's duration, or the configured animation
// duration when none is known
func (m *Manager) ActiveDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && m.active.budget > 0 {
		return m.active.budget
	}
	return m.settings.Debounce.AnimationDuration
}

// notes collects callbacks to run once the manager lock is released
type notes struct {
	fns          []func()
	stateChanged bool
}

func (n *notes) add(fn func()) { n.fns = append(n.fns, fn) }

func (m *Manager) dispatchLocked(n *notes, a state.Action) state.ScrollState {
	s, changed := m.store.Dispatch(a)
	if changed {
		n.stateChanged = true
	}
	return s
}

func (m *Manager) flush(n *notes) {
	for _, fn := range n.fns {
		fn()
	}
	if !n.stateChanged {
		return
	}
	s := m.store.State()
	m.cbMu.RLock()
	listeners := append([]func(state.ScrollState){}, m.stateListeners...)
	m.cbMu.RUnlock()
	for _, fn := range listeners {
		m.safe("state listener", func() { fn(s) })
	}
}

func (m *Manager) sectionChanged(n *notes, from, to int) {
	pathname := m.store.State().Pathname
	at := m.clk.Now()
	n.add(func() {
		m.cbMu.RLock()
		listeners := append([]func(int){}, m.sectionListeners...)
		m.cbMu.RUnlock()
		for _, fn := range listeners {
			m.safe("section listener", func() { fn(to) })
		}
		m.publish(eventbus.SectionChangedEvent{From: from, To: to, Pathname: pathname, At: at})
	})
}

func (m *Manager) publish(e eventbus.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// safe runs a consumer callback, containing any panic
func (m *Manager) safe(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("callback panicked", zap.String("callback", what), zap.Any("panic", r))
		}
	}()
	fn()
}
