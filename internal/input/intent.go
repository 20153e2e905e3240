package input

// Intent is a navigation gesture, independent of the device that produced it
type Intent int

const (
	IntentNone Intent = iota
	IntentForward
	IntentBackward
	IntentFirst
	IntentLast
)

func (i Intent) String() string {
	switch i {
	case IntentForward:
		return "forward"
	case IntentBackward:
		return "backward"
	case IntentFirst:
		return "first"
	case IntentLast:
		return "last"
	default:
		return "none"
	}
}

// Invert swaps forward and backward
func (i Intent) Invert() Intent {
	switch i {
	case IntentForward:
		return IntentBackward
	case IntentBackward:
		return IntentForward
	default:
		return i
	}
}

// Target resolves the intent to a section index. Gestures past the first or
// last section resolve to current, which the manager treats as a no-op.
func (i Intent) Target(current, count int) int {
	last := count - 1
	if last < 0 {
		last = 0
	}
	switch i {
	case IntentForward:
		if current >= last {
			return current
		}
		return current + 1
	case IntentBackward:
		if current <= 0 {
			return current
		}
		return current - 1
	case IntentFirst:
		return 0
	case IntentLast:
		return last
	default:
		return current
	}
}

// MapKey maps a key name (as bubbletea or a browser reports it) to an intent
func MapKey(key string, invert bool) Intent {
	var i Intent
	switch key {
	case "down", "ArrowDown", "pgdown", "PageDown", " ", "space", "j":
		i = IntentForward
	case "up", "ArrowUp", "pgup", "PageUp", "k":
		i = IntentBackward
	case "home", "Home", "g":
		return IntentFirst
	case "end", "End", "G":
		return IntentLast
	default:
		return IntentNone
	}
	if invert {
		return i.Invert()
	}
	return i
}

// MapWheel maps an accumulated wheel delta: positive is wheel down, which is forward
func MapWheel(delta float64, invert bool) Intent {
	return directional(delta, invert)
}

// MapSwipe maps a vertical touch delta: a swipe up (negative dy) is forward
func MapSwipe(dy float64, invert bool) Intent {
	return directional(-dy, invert)
}

func directional(v float64, invert bool) Intent {
	var i Intent
	switch {
	case v > 0:
		i = IntentForward
	case v < 0:
		i = IntentBackward
	default:
		return IntentNone
	}
	if invert {
		return i.Invert()
	}
	return i
}
