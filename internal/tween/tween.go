package tween

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// Tween interpolates a scroll offset over time. Sample is called once per
// frame; done is true once the returned value is final.
type Tween interface {
	Sample(now time.Time) (value float64, done bool)
	From() float64
	To() float64
	Duration() time.Duration
}

// Engine starts tweens
type Engine interface {
	Start(from, to float64, start time.Time, d time.Duration) Tween
	Name() string
}

// NewEngine builds the engine named in config ("timeline" or "spring")
func NewEngine(name, easing string) (Engine, error) {
	switch name {
	case "", "timeline":
		fn, err := Easing(easing)
		if err != nil {
			return nil, err
		}
		return Timeline{Ease: fn}, nil
	case "spring":
		return NewSpring(DefaultFPS, DefaultFrequency, DefaultDamping), nil
	default:
		return nil, fmt.Errorf("unknown tween engine %q", name)
	}
}

// Timeline is a fixed-duration eased tween
type Timeline struct {
	Ease EasingFunc
}

func (Timeline) Name() string { return "timeline" }

func (e Timeline) Start(from, to float64, start time.Time, d time.Duration) Tween {
	ease := e.Ease
	if ease == nil {
		ease = EaseSmoothstep
	}
	return &timelineTween{from: from, to: to, start: start, duration: d, ease: ease}
}

type timelineTween struct {
	from, to float64
	start    time.Time
	duration time.Duration
	ease     EasingFunc
}

func (t *timelineTween) From() float64           { return t.from }
func (t *timelineTween) To() float64             { return t.to }
func (t *timelineTween) Duration() time.Duration { return t.duration }

func (t *timelineTween) Sample(now time.Time) (float64, bool) {
	if t.duration <= 0 {
		return t.to, true
	}
	elapsed := now.Sub(t.start)
	if elapsed >= t.duration {
		return t.to, true
	}
	if elapsed < 0 {
		return t.from, false
	}
	progress := float64(elapsed) / float64(t.duration)
	return t.from + (t.to-t.from)*t.ease(progress), false
}

const (
	DefaultFPS       = 60
	DefaultFrequency = 6.0
	DefaultDamping   = 1.0
	// settle thresholds in pixels and pixels per frame
	settleDistance = 0.5
	settleVelocity = 0.5
)

// Spring is a harmonica damped spring. The configured duration is an upper
// bound: a spring that has not settled by then lands on the target.
type Spring struct {
	fps       int
	frequency float64
	damping   float64
}

// NewSpring creates a spring engine stepped at fps frames per second
func NewSpring(fps int, frequency, damping float64) Spring {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return Spring{fps: fps, frequency: frequency, damping: damping}
}

func (Spring) Name() string { return "spring" }

func (e Spring) Start(from, to float64, start time.Time, d time.Duration) Tween {
	return &springTween{
		spring:   harmonica.NewSpring(harmonica.FPS(e.fps), e.frequency, e.damping),
		step:     time.Second / time.Duration(e.fps),
		from:     from,
		to:       to,
		pos:      from,
		start:    start,
		last:     start,
		duration: d,
	}
}

type springTween struct {
	spring   harmonica.Spring
	step     time.Duration
	from, to float64
	pos, vel float64
	start    time.Time
	last     time.Time
	duration time.Duration
	done     bool
}

func (t *springTween) From() float64           { return t.from }
func (t *springTween) To() float64             { return t.to }
func (t *springTween) Duration() time.Duration { return t.duration }

func (t *springTween) Sample(now time.Time) (float64, bool) {
	if t.done {
		return t.to, true
	}
	if t.duration <= 0 || now.Sub(t.start) >= t.duration {
		t.done = true
		t.pos, t.vel = t.to, 0
		return t.to, true
	}

	// step the spring once per elapsed frame so the motion is frame-rate independent
	for !t.last.Add(t.step).After(now) {
		t.pos, t.vel = t.spring.Update(t.pos, t.vel, t.to)
		t.last = t.last.Add(t.step)
	}

	if math.Abs(t.pos-t.to) < settleDistance && math.Abs(t.vel) < settleVelocity {
		t.done = true
		t.pos, t.vel = t.to, 0
		return t.to, true
	}
	return t.pos, false
}

// ScaledDuration returns base * sqrt(distance) clamped to [min, max].
// A zero distance yields zero.
func ScaledDuration(base, min, max time.Duration, distance int) time.Duration {
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 {
		return 0
	}
	d := time.Duration(float64(base) * math.Sqrt(float64(distance)))
	if d < min {
		d = min
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}
