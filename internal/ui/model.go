package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"storyscroll/internal/clock"
	"storyscroll/internal/config"
	"storyscroll/internal/domain"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/input"
	"storyscroll/internal/logic"
	"storyscroll/internal/queue"
	"storyscroll/internal/recovery"
	"storyscroll/internal/scroll"
	"storyscroll/internal/scroller"
	"storyscroll/internal/tween"
	uiinput "storyscroll/internal/ui/input"
	"storyscroll/internal/ui/input/types"
	"storyscroll/internal/ui/views"
)

// Options configures the viewer model
type Options struct {
	Bus    eventbus.EventBus
	Events <-chan eventbus.DomainEvent // bus events forwarded to the UI
	Config *config.Config
	Logger *zap.Logger
	Clock  clock.Clock
	Story  domain.Story
	// StartSection is applied without animation once the first layout is known
	StartSection int
	// ReadyMarker prints views.ReadyMarker in the status line for test drivers
	ReadyMarker bool
}

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	events <-chan eventbus.DomainEvent
	config *config.Config
	log    *zap.Logger
	clk    clock.Clock
	engine tween.Engine

	story    domain.Story
	sections *logic.MemorySectionStore

	// controller
	surface  *scroll.MemorySurface
	manager  *scroller.Manager
	verifier *recovery.Verifier
	observer *input.GestureObserver
	reload   atomic.Bool

	// rendering
	renderer      *views.Renderer
	sectionRender *views.SectionRenderer
	helpRender    *HelpRenderer
	inputHandler  *uiinput.Handler
	keys          types.KeyMap
	help          help.Model
	lines         []string

	width         int
	height        int
	showHelp      bool
	showDebug     bool
	status        string
	statusIsError bool
	lastCheck     string
	startSection  int
	laidOut       bool
	readyMarker   bool

	frameInterval  time.Duration
	verifyInterval time.Duration

	// Program reference for terminal management
	program *tea.Program
	pager   *PagerOps
}

// NewModel creates a new UI model with its own scroll controller
func NewModel(opts Options) (*Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	engine, err := tween.NewEngine(cfg.Animation.Engine, cfg.Animation.Easing)
	if err != nil {
		return nil, fmt.Errorf("animation engine: %w", err)
	}

	keys := types.DefaultKeyMap()
	m := &Model{
		bus:            opts.Bus,
		events:         opts.Events,
		config:         cfg,
		log:            opts.Logger,
		clk:            clock.OrReal(opts.Clock),
		engine:         engine,
		story:          opts.Story,
		sections:       logic.NewMemorySectionStore(opts.Story),
		renderer:       views.NewRenderer(),
		helpRender:     NewHelpRenderer(),
		inputHandler:   uiinput.New(keys),
		keys:           keys,
		help:           help.New(),
		showDebug:      cfg.UI.ShowDebug,
		startSection:   opts.StartSection,
		readyMarker:    opts.ReadyMarker,
		frameInterval:  time.Second / 60,
		verifyInterval: cfg.Verification.Interval.Duration,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if cfg.UI.FrameRate > 0 {
		m.frameInterval = time.Second / time.Duration(cfg.UI.FrameRate)
	}
	if m.verifyInterval <= 0 {
		m.verifyInterval = 500 * time.Millisecond
	}
	m.sectionRender = views.NewSectionRenderer(m.renderer.Styles(), cfg.UI.Markdown)
	m.buildController()
	return m, nil
}

// buildController creates a fresh surface, manager, verifier and observer.
// It runs at startup and whenever an emergency reset asks for a reload.
func (m *Model) buildController() {
	if m.observer != nil {
		m.observer.Destroy()
	}

	m.surface = scroll.NewMemorySurface(float64(m.viewportRows()), 0)
	m.manager = scroller.New(scroller.Options{
		Settings: scroller.SettingsFromConfig(m.config),
		Clock:    m.clk,
		Logger:   m.log,
		Bus:      m.bus,
		Surface:  m.surface,
		Engine:   m.engine,
		Reload:   func() { m.reload.Store(true) },
		Sections: m.sections,
	})
	m.manager.SetPathname(m.story.Path)
	m.verifier = recovery.New(m.manager, recovery.ConfigFromSettings(m.config.Verification), m.clk, m.log, m.bus)
	m.attachObserver()
	m.manager.Mount()

	if m.width > 0 {
		m.layout()
	}
}

// attachObserver binds a new wheel observer to the current manager
func (m *Model) attachObserver() {
	mgr := m.manager
	obs := input.NewGestureObserver(input.ObserverConfig{
		WheelThreshold: m.config.Input.WheelThreshold,
		TouchThreshold: m.config.Input.TouchThreshold,
		GestureTimeout: m.config.Input.GestureTimeout.Duration,
		Invert:         m.config.Input.Invert,
	}, m.clk, m.log, mgr, func(intent input.Intent) {
		res := mgr.HandleGesture(intent, queue.SourceWheel)
		if !res.Accepted {
			m.log.Debug("wheel gesture rejected", zap.String("reason", string(res.Reason)))
		}
	})
	m.observer = obs
	mgr.AttachObserver(obs)
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPagerOps(p)
}

// Manager exposes the scroll controller
func (m *Model) Manager() *scroller.Manager {
	return m.manager
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.frameTick(), m.verifyTick(), m.waitForEvent())
}

func (m *Model) frameTick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) verifyTick() tea.Cmd {
	return tea.Tick(m.verifyInterval, func(t time.Time) tea.Msg {
		return verifyMsg(t)
	})
}

// waitForEvent delivers the next forwarded bus event
func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return nil
		}
		return EventMsg{Event: e}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		if !m.laidOut {
			m.laidOut = true
			m.resume()
		}
		return m, nil

	case tea.KeyMsg:
		actions, cmd := m.inputHandler.HandleKey(msg, m)
		cmds := []tea.Cmd{}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		for _, action := range actions {
			if actionCmd := m.processAction(action); actionCmd != nil {
				cmds = append(cmds, actionCmd)
			}
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.FocusMsg:
		m.manager.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.manager.SetVisible(false)
		return m, nil

	case frameMsg:
		m.frame()
		return m, m.frameTick()

	case verifyMsg:
		m.verify()
		return m, m.verifyTick()

	case EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, m.waitForEvent())

	case pagerMsg:
		m.manager.SetVisible(true)
		if msg.err != nil {
			m.log.Warn("pager failed", zap.Error(msg.err))
			return m, m.setStatus(fmt.Sprintf("Pager failed: %v", msg.err), true)
		}
		return m, nil

	case reloadMsg:
		m.rebuild()
		return m, nil

	case clearStatusMsg:
		m.status = ""
		m.statusIsError = false
		return m, nil
	}

	if cmd := m.inputHandler.Update(msg); cmd != nil {
		return m, cmd
	}
	return m, nil
}

// frame advances the animation and repairs input after an emergency reset
func (m *Model) frame() {
	if m.reload.CompareAndSwap(true, false) {
		m.rebuild()
	}
	m.manager.Advance(m.clk.Now())
	if m.observer.Destroyed() {
		m.attachObserver()
	}
}

func (m *Model) verify() {
	report := m.verifier.Check(m.clk.Now())
	if report.Clean() {
		return
	}
	parts := make([]string, 0, len(report.Corrections))
	for _, c := range report.Corrections {
		parts = append(parts, c.Check)
	}
	m.lastCheck = strings.Join(parts, ", ")
}

// rebuild replaces the controller, keeping the story and layout
func (m *Model) rebuild() {
	m.log.Warn("rebuilding scroll controller")
	m.buildController()
}

// resume applies the start section once the first layout exists
func (m *Model) resume() {
	if m.startSection <= 0 {
		return
	}
	res := m.manager.GotoSection(m.startSection,
		scroller.Immediate(),
		scroller.Force(),
		scroller.WithSource(queue.SourceProgrammatic))
	if !res.Accepted {
		m.log.Info("resume position not applied", zap.Int("section", m.startSection), zap.String("reason", string(res.Reason)))
	}
}

// viewportRows is the number of content rows between header and footer
func (m *Model) viewportRows() int {
	rows := m.height - views.ChromeRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

// layout renders every section and rebuilds the surface offsets
func (m *Model) layout() {
	rows := m.viewportRows()
	m.sectionRender.SetWidth(m.width)

	m.lines = m.lines[:0]
	heights := make([]float64, len(m.story.Sections))
	for i, sec := range m.story.Sections {
		lines := m.sectionRender.Render(sec, rows)
		heights[i] = float64(len(lines))
		m.lines = append(m.lines, lines...)
	}

	m.surface.SetViewport(float64(rows))
	m.surface.SetHeights(heights)
	m.manager.SetSectionCount(len(heights))
	m.manager.Resize()
}

// applyStory swaps in a reloaded story
func (m *Model) applyStory(story domain.Story) {
	m.story = story
	m.sections.SetStory(story)
	if m.width > 0 {
		m.layout()
	} else {
		m.manager.SetSectionCount(len(story.Sections))
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		m.observer.Wheel(1)
	case tea.MouseButtonWheelUp:
		m.observer.Wheel(-1)
	}
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch ev := e.(type) {
	case eventbus.StoryReloadedEvent:
		m.applyStory(ev.Story)
		return m.setStatus(fmt.Sprintf("Reloaded %d sections", len(ev.Story.Sections)), false)
	case eventbus.RecoveryEvent:
		m.lastCheck = ev.Check
	case eventbus.EmergencyResetEvent:
		if !ev.Recovered {
			return m.setStatus("Controller reloaded after a failed reset", true)
		}
	case eventbus.ErrorEvent:
		return m.setStatus(ev.Message, true)
	}
	return nil
}

// processAction processes an action from the input handler
func (m *Model) processAction(action types.Action) tea.Cmd {
	switch a := action.(type) {
	case types.QuitAction:
		return tea.Quit

	case types.NavigateAction:
		res := m.manager.HandleGesture(a.Intent, queue.SourceKeyboard)
		m.logResult("key", res)

	case types.GotoIndexAction:
		res := m.manager.GotoSection(a.Index, scroller.WithSource(queue.SourceKeyboard))
		m.logResult("number", res)

	case types.SubmitTextAction:
		return m.gotoByName(a.Text)

	case types.ForceSyncAction:
		m.manager.ForceSync()
		return m.setStatus("Synced to current section", false)

	case types.EmergencyAction:
		m.manager.Emergency()
		if m.observer.Destroyed() {
			m.attachObserver()
		}
		return m.setStatus("Emergency reset", false)

	case types.ToggleHelpAction:
		m.showHelp = !m.showHelp

	case types.ToggleDebugAction:
		m.showDebug = !m.showDebug

	case types.OpenPagerAction:
		return m.openPager()
	}
	return nil
}

func (m *Model) logResult(via string, res scroller.Result) {
	if res.Accepted {
		return
	}
	m.log.Debug("navigation rejected",
		zap.String("via", via),
		zap.Int("target", res.Target),
		zap.String("reason", string(res.Reason)))
}

// gotoByName navigates to a section named or numbered (1-based) by text
func (m *Model) gotoByName(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	idx, ok := m.sections.IndexOf(text)
	if !ok {
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= m.sections.Count() {
			idx, ok = n-1, true
		}
	}
	if !ok {
		return m.setStatus(fmt.Sprintf("Unknown section %q", text), true)
	}

	res := m.manager.GotoSection(idx, scroller.WithSource(queue.SourceKeyboard))
	m.logResult("goto", res)
	return nil
}

func (m *Model) openPager() tea.Cmd {
	if m.pager == nil {
		return m.setStatus("Pager unavailable", true)
	}
	sec, ok := m.sections.Section(m.manager.State().CurrentSection)
	if !ok {
		return nil
	}
	content := strings.Join(m.sectionRender.Render(sec, 0), "\n")
	pager := m.pager

	// the pager owns the terminal; pause the controller meanwhile
	m.manager.SetVisible(false)
	return func() tea.Msg {
		return pagerMsg{err: pager.ShowInPager(content)}
	}
}

// setStatus shows a transient status message
func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.status = text
	m.statusIsError = isError
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// CurrentSection implements types.Context
func (m *Model) CurrentSection() int {
	return m.manager.State().CurrentSection
}

// SectionCount implements types.Context
func (m *Model) SectionCount() int {
	return m.manager.State().SectionCount
}

// SectionNames implements types.Context
func (m *Model) SectionNames() []string {
	return m.sections.Names()
}

// Inverted implements types.Context
func (m *Model) Inverted() bool {
	return m.config.Input.Invert
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	st := m.manager.State()
	titles := make([]string, len(m.story.Sections))
	for i, sec := range m.story.Sections {
		titles[i] = sec.Title
		if titles[i] == "" {
			titles[i] = sec.Name
		}
	}

	vs := views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Title:         m.story.Title,
		Lines:         m.lines,
		Top:           int(math.Round(m.surface.ScrollTop())),
		Viewport:      m.viewportRows(),
		SectionTitles: titles,
		Current:       st.CurrentSection,
		Target:        st.TargetSection,
		Animating:     st.IsAnimating,
		Status:        m.status,
		StatusIsError: m.statusIsError,
		ShowHelp:      m.showHelp,
		ShortHelp:     m.help.View(m.keys),
		ShowDebug:     m.showDebug,
		Ready:         m.readyMarker,
	}
	if ti := m.inputHandler.TextInput(); ti != nil {
		vs.GotoMode = true
		vs.GotoInput = ti.View()
	}
	if m.showHelp {
		vs.HelpContent = m.helpRender.renderHelpContent()
	}
	if m.showDebug {
		vs.Debug = m.debugState()
	}
	return m.renderer.Render(vs)
}

func (m *Model) debugState() views.DebugState {
	info := m.manager.Info()
	return views.DebugState{
		Current:         info.State.CurrentSection,
		Target:          info.State.TargetSection,
		SectionCount:    info.State.SectionCount,
		Animating:       info.State.IsAnimating,
		Scrolling:       info.Guard.IsScrolling,
		CanNavigate:     info.Guard.CanNavigate,
		Reason:          string(m.manager.Guard().Reason()),
		ActiveAnimation: info.ActiveAnimation,
		AnimationAge:    info.AnimationAge,
		Pending:         len(info.Pending),
		ScrollTop:       m.surface.ScrollTop(),
		Visible:         info.Visible,
		LastCheck:       m.lastCheck,
	}
}
