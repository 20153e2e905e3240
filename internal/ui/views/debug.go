package views

import (
	"fmt"
	"strings"
	"time"
)

// DebugState is the controller snapshot shown by the debug panel
type DebugState struct {
	Current         int
	Target          int
	SectionCount    int
	Animating       bool
	Scrolling       bool
	CanNavigate     bool
	Reason          string
	ActiveAnimation string
	AnimationAge    time.Duration
	Pending         int
	ScrollTop       float64
	Visible         bool
	LastCheck       string
}

func (r *Renderer) renderDebug(d DebugState) string {
	row := func(k string, v any) string {
		return fmt.Sprintf("%s %v", r.styles.DebugKey.Render(fmt.Sprintf("%-10s", k)), v)
	}
	target := "-"
	if d.Target >= 0 {
		target = fmt.Sprint(d.Target)
	}
	gate := "open"
	if !d.CanNavigate {
		gate = "closed (" + d.Reason + ")"
	}
	anim := "-"
	if d.ActiveAnimation != "" {
		anim = fmt.Sprintf("%s %s", d.ActiveAnimation, d.AnimationAge.Round(time.Millisecond))
	}

	lines := []string{
		row("section", fmt.Sprintf("%d/%d", d.Current, d.SectionCount)),
		row("target", target),
		row("gate", gate),
		row("animation", anim),
		row("scrolling", d.Scrolling),
		row("position", fmt.Sprintf("%.1f", d.ScrollTop)),
		row("pending", d.Pending),
		row("visible", d.Visible),
	}
	if d.LastCheck != "" {
		lines = append(lines, row("verifier", d.LastCheck))
	}
	return r.styles.DebugBox.Render(strings.Join(lines, "\n"))
}
