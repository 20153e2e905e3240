package tween

import (
	"fmt"
	"math"
	"sort"
)

// EasingFunc maps progress in [0,1] to eased progress in [0,1]
type EasingFunc func(t float64) float64

var (
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	// EaseSmoothstep accelerates at the start and decelerates at the end
	EaseSmoothstep EasingFunc = func(t float64) float64 {
		return t * t * (3.0 - 2.0*t)
	}

	EaseSmootherstep EasingFunc = func(t float64) float64 {
		return t * t * t * (t*(t*6.0-15.0) + 10.0)
	}

	EaseOutCubic EasingFunc = func(t float64) float64 {
		t1 := t - 1.0
		return t1*t1*t1 + 1.0
	}

	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4.0 * t * t * t
		}
		t1 := 2.0*t - 2.0
		return 1.0 + t1*t1*t1*0.5
	}

	// EaseOutExpo is the "power4.out"-like curve section snaps usually want
	EaseOutExpo EasingFunc = func(t float64) float64 {
		if t >= 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*t)
	}
)

var easings = map[string]EasingFunc{
	"linear":         EaseLinear,
	"smoothstep":     EaseSmoothstep,
	"smootherstep":   EaseSmootherstep,
	"ease-out-cubic": EaseOutCubic,
	"ease-in-out":    EaseInOutCubic,
	"ease-out-expo":  EaseOutExpo,
}

// Easing looks up an easing function by name
func Easing(name string) (EasingFunc, error) {
	if name == "" {
		return EaseSmoothstep, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q (known: %v)", name, EasingNames())
	}
	return fn, nil
}

// EasingNames lists the registered easing names
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
