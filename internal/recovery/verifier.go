// Package recovery periodically compares the logical scroll state with the
// physical position and corrects whatever has drifted.
package recovery

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/clock"
	"storyscroll/internal/config"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/state"
)

// Check names
const (
	CheckSectionMismatch = "section-mismatch"
	CheckStuckAnimation  = "stuck-animation"
	CheckInvalidTarget   = "invalid-target"
	CheckIdleDrift       = "idle-drift"
	CheckEmergency       = "emergency"
)

// Target is the controller being verified. *scroller.Manager implements it.
type Target interface {
	State() state.ScrollState
	ScrollTop() float64
	SectionAt(y float64) int
	SectionOffset(i int) (float64, bool)
	SectionHeight(i int) float64
	ActiveDuration() time.Duration

	ResyncSection(index int)
	ForceSync()
	ClearTarget()
	RecordPosition(y float64)
	Emergency()
}

// Config tunes the verifier
type Config struct {
	Interval    time.Duration
	StuckBuffer time.Duration
	DriftRatio  float64
	// MaxStuckStrikes is how many consecutive ForceSyncs may leave the same
	// animation stuck before the verifier escalates to Emergency
	MaxStuckStrikes int
}

// DefaultConfig returns the default verifier settings
func DefaultConfig() Config {
	return Config{
		Interval:        500 * time.Millisecond,
		StuckBuffer:     500 * time.Millisecond,
		DriftRatio:      0.1,
		MaxStuckStrikes: 3,
	}
}

// ConfigFromSettings reads the verifier settings from the app config
func ConfigFromSettings(s config.VerifySettings) Config {
	cfg := DefaultConfig()
	cfg.Interval = s.Interval.Duration
	cfg.StuckBuffer = s.StuckBuffer.Duration
	cfg.DriftRatio = s.DriftRatio
	return cfg
}

// Correction is one fix applied by a check
type Correction struct {
	Check  string
	Detail string
}

// Report lists the corrections applied by one pass
type Report struct {
	At          time.Time
	Corrections []Correction
}

// Clean reports whether nothing needed correcting
func (r Report) Clean() bool { return len(r.Corrections) == 0 }

func (r *Report) add(check, format string, args ...any) {
	r.Corrections = append(r.Corrections, Correction{Check: check, Detail: fmt.Sprintf(format, args...)})
}

// Verifier runs the checks
type Verifier struct {
	target Target
	cfg    Config
	clk    clock.Clock
	log    *zap.Logger
	bus    eventbus.EventBus

	stuckStrikes int
}

// New creates a verifier
func New(target Target, cfg Config, clk clock.Clock, log *zap.Logger, bus eventbus.EventBus) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.DriftRatio <= 0 {
		cfg.DriftRatio = DefaultConfig().DriftRatio
	}
	return &Verifier{target: target, cfg: cfg, clk: clock.OrReal(clk), log: log, bus: bus}
}

// Check runs every check once at now and applies their corrections. Each
// check reads fresh state so earlier corrections are visible to later ones.
func (v *Verifier) Check(now time.Time) Report {
	report := Report{At: now}

	v.checkMismatch(&report)
	v.checkStuck(&report, now)
	v.checkInvalidTarget(&report)
	v.checkIdleDrift(&report)

	for _, c := range report.Corrections {
		v.log.Info("state corrected", zap.String("check", c.Check), zap.String("detail", c.Detail))
		if v.bus != nil {
			v.bus.Publish(eventbus.RecoveryEvent{Check: c.Check, Detail: c.Detail})
		}
	}
	return report
}

// checkMismatch trusts the physical position while idle
func (v *Verifier) checkMismatch(r *Report) {
	s := v.target.State()
	if s.IsAnimating || s.SectionCount == 0 {
		return
	}
	actual := v.target.SectionAt(v.target.ScrollTop())
	if actual != s.CurrentSection {
		v.target.ResyncSection(actual)
		r.add(CheckSectionMismatch, "state section %d, position is at section %d", s.CurrentSection, actual)
	}
}

func (v *Verifier) checkStuck(r *Report, now time.Time) {
	s := v.target.State()
	if !s.IsAnimating || s.AnimationStartedAt.IsZero() {
		v.stuckStrikes = 0
		return
	}
	limit := v.target.ActiveDuration() + v.cfg.StuckBuffer
	age := now.Sub(s.AnimationStartedAt)
	if age <= limit {
		v.stuckStrikes = 0
		return
	}

	if v.cfg.MaxStuckStrikes > 0 && v.stuckStrikes >= v.cfg.MaxStuckStrikes {
		v.stuckStrikes = 0
		v.target.Emergency()
		r.add(CheckEmergency, "animation still stuck after %d force syncs", v.cfg.MaxStuckStrikes)
		return
	}

	v.target.ForceSync()
	r.add(CheckStuckAnimation, "animating for %s (limit %s)", age, limit)

	// a strike only counts when ForceSync left the same animation in place
	after := v.target.State()
	if after.IsAnimating && after.AnimationStartedAt.Equal(s.AnimationStartedAt) {
		v.stuckStrikes++
	} else {
		v.stuckStrikes = 0
	}
}

func (v *Verifier) checkInvalidTarget(r *Report) {
	s := v.target.State()
	if s.HasTarget() && !s.InBounds(s.TargetSection) {
		v.target.ClearTarget()
		r.add(CheckInvalidTarget, "target %d outside [0,%d)", s.TargetSection, s.SectionCount)
	}
}

// checkIdleDrift records the real position when it has wandered off the
// section start. The section index is left alone.
func (v *Verifier) checkIdleDrift(r *Report) {
	s := v.target.State()
	if s.IsAnimating || s.IsScrolling || s.SectionCount == 0 {
		return
	}
	expected, ok := v.target.SectionOffset(s.CurrentSection)
	if !ok {
		return
	}
	height := v.target.SectionHeight(s.CurrentSection)
	actual := v.target.ScrollTop()
	if math.Abs(actual-expected) <= height*v.cfg.DriftRatio {
		return
	}
	if s.ScrollPosition == actual {
		return
	}
	v.target.RecordPosition(actual)
	r.add(CheckIdleDrift, "position %.0f is %.0f from section %d", actual, actual-expected, s.CurrentSection)
}

// Run checks every Interval until ctx is cancelled
func (v *Verifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v.Check(v.clk.Now())
		}
	}
}
