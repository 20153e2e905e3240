package input

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/clock"
)

// ScrollSignals receives raw scroll activity. The scroller Manager implements it.
type ScrollSignals interface {
	MarkScrollStart()
	MarkScrollEnd()
}

// ObserverConfig tunes gesture detection
type ObserverConfig struct {
	WheelThreshold float64
	TouchThreshold float64
	GestureTimeout time.Duration
	Invert         bool
}

// GestureObserver turns a stream of wheel deltas into at most one intent per
// gesture. A gesture ends after GestureTimeout without events; Tick must be
// called periodically to notice that.
type GestureObserver struct {
	mu        sync.Mutex
	cfg       ObserverConfig
	clk       clock.Clock
	log       *zap.Logger
	signals   ScrollSignals
	onIntent  func(Intent)
	enabled   bool
	destroyed bool

	active    bool
	fired     bool
	accum     float64
	lastEvent time.Time
}

// NewGestureObserver creates an enabled observer
func NewGestureObserver(cfg ObserverConfig, clk clock.Clock, log *zap.Logger, signals ScrollSignals, onIntent func(Intent)) *GestureObserver {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.WheelThreshold <= 0 {
		cfg.WheelThreshold = 1
	}
	if cfg.TouchThreshold <= 0 {
		cfg.TouchThreshold = 50
	}
	if cfg.GestureTimeout <= 0 {
		cfg.GestureTimeout = 250 * time.Millisecond
	}
	return &GestureObserver{
		cfg:      cfg,
		clk:      clock.OrReal(clk),
		log:      log,
		signals:  signals,
		onIntent: onIntent,
		enabled:  true,
	}
}

// Wheel feeds one wheel event
func (o *GestureObserver) Wheel(delta float64) {
	o.mu.Lock()
	if !o.enabled || o.destroyed {
		o.mu.Unlock()
		return
	}
	now := o.clk.Now()
	o.expireLocked(now)
	o.active = true
	o.lastEvent = now

	if o.fired {
		// momentum tail of a gesture that already navigated
		o.mu.Unlock()
		o.markStart()
		return
	}

	o.accum += delta
	if math.Abs(o.accum) < o.cfg.WheelThreshold {
		o.mu.Unlock()
		return
	}
	o.fired = true
	intent := MapWheel(o.accum, o.cfg.Invert)
	o.mu.Unlock()

	o.emit(intent)
	o.markStart()
}

// Swipe feeds a completed touch swipe of dy pixels
func (o *GestureObserver) Swipe(dy float64) {
	o.mu.Lock()
	ok := o.enabled && !o.destroyed && math.Abs(dy) >= o.cfg.TouchThreshold
	invert := o.cfg.Invert
	o.mu.Unlock()
	if !ok {
		return
	}
	o.emit(MapSwipe(dy, invert))
}

// Tick ends the current gesture once it has been quiet for GestureTimeout
func (o *GestureObserver) Tick() {
	o.mu.Lock()
	ended := o.expireLocked(o.clk.Now())
	o.mu.Unlock()
	if ended {
		o.markEnd()
	}
}

// expireLocked resets gesture state and reports whether a fired gesture ended
func (o *GestureObserver) expireLocked(now time.Time) bool {
	if !o.active || now.Sub(o.lastEvent) < o.cfg.GestureTimeout {
		return false
	}
	fired := o.fired
	o.active = false
	o.fired = false
	o.accum = 0
	return fired
}

func (o *GestureObserver) emit(i Intent) {
	o.log.Debug("gesture", zap.Stringer("intent", i))
	if o.onIntent != nil {
		o.onIntent(i)
	}
}

func (o *GestureObserver) markStart() {
	if o.signals != nil {
		o.signals.MarkScrollStart()
	}
}

func (o *GestureObserver) markEnd() {
	if o.signals != nil {
		o.signals.MarkScrollEnd()
	}
}

func (o *GestureObserver) Enable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.destroyed {
		o.enabled = true
	}
}

func (o *GestureObserver) Disable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = false
}

// Destroy permanently disables the observer
func (o *GestureObserver) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed = true
	o.enabled = false
	o.active = false
	o.fired = false
	o.accum = 0
}

// Destroyed reports whether Destroy was called
func (o *GestureObserver) Destroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}
