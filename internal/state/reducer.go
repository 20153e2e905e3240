package state

// Reduce is the pure reducer. It never mutates s: handled actions return a
// new pointer, unknown actions return s itself so callers can detect a no-op
// by identity. Out-of-range indices are clamped, never rejected.
func Reduce(s *ScrollState, a Action) *ScrollState {
	if s == nil {
		initial := Initial()
		s = &initial
	}

	next := *s

	switch act := a.(type) {
	case SetClientMounted:
		next.IsClient = act.Mounted

	case SetPathname:
		next.Pathname = act.Pathname

	case SetCurrentIndex:
		next.CurrentSection = next.Clamp(act.Index)

	case StartAnimation:
		next.IsAnimating = true
		next.TargetSection = next.Clamp(act.Target)
		next.AnimationStartedAt = act.At

	case EndAnimation:
		next.IsAnimating = false
		next.TargetSection = NoTarget
		next.AnimationStartedAt = zeroTime

	case StartScrolling:
		next.IsScrolling = true
		next.LastScrollTime = act.At

	case EndScrolling:
		next.IsScrolling = false

	case UpdateScrollTime:
		next.LastScrollTime = act.At

	case ResetScrollState:
		reset := Initial()
		reset.IsClient = s.IsClient
		reset.Pathname = s.Pathname
		reset.SectionCount = s.SectionCount
		next = reset

	case GotoSection:
		next.CurrentSection = next.Clamp(act.Index)
		next.IsAnimating = true
		next.LastScrollTime = act.Timestamp
		next.AnimationStartedAt = act.Timestamp

	case CommitSection:
		next.CurrentSection = next.Clamp(act.Index)
		next.TargetSection = NoTarget
		next.IsAnimating = false
		next.LastScrollTime = act.At
		next.AnimationStartedAt = zeroTime

	case SetSectionCount:
		count := act.Count
		if count < 0 {
			count = 0
		}
		next.SectionCount = count
		// the target is left alone; the verifier clears out-of-range targets
		next.CurrentSection = clamp(next.CurrentSection, count)

	case SetTargetSection:
		if act.Index == NoTarget {
			next.TargetSection = NoTarget
		} else {
			next.TargetSection = next.Clamp(act.Index)
		}

	case RecordScrollPosition:
		next.ScrollPosition = act.Position

	case ResetState:
		next = Initial()

	default:
		return s
	}

	return &next
}
