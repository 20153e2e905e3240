package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ReadyMarker is printed in the status line when the viewer runs under a test driver
const ReadyMarker = "__READY__"

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Title         string
	Lines         []string // every section's lines, stacked
	Top           int      // first visible line
	Viewport      int      // rows available for content
	SectionTitles []string
	Current       int
	Target        int
	Animating     bool
	GotoMode      bool
	GotoInput     string
	Status        string
	StatusIsError bool
	ShowHelp      bool
	HelpContent   string
	ShortHelp     string
	ShowDebug     bool
	Debug         DebugState
	Ready         bool
}

// ChromeRows is the number of rows the header, status and footer take
const ChromeRows = 3

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Styles exposes the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderHeader(state))
	content.WriteString("\n")

	var body string
	switch {
	case len(state.Lines) == 0:
		body = lipgloss.Place(state.Width, state.Viewport, lipgloss.Center, lipgloss.Center,
			r.styles.Dim.Render("This story has no sections."))
	case state.ShowHelp:
		body = r.renderOverlay(state.HelpContent, state.Width, state.Viewport)
	default:
		body = r.renderWindow(state)
	}
	content.WriteString(body)
	content.WriteString("\n")

	content.WriteString(r.renderStatus(state))
	content.WriteString("\n")
	content.WriteString(r.styles.Help.Render(state.ShortHelp))

	return content.String()
}

func (r *Renderer) renderHeader(state ViewState) string {
	logo := r.styles.Title.Render(state.Title)

	var marks []string
	for i := range state.SectionTitles {
		switch {
		case i == state.Current:
			marks = append(marks, r.styles.MarkerCurrent.Render("●"))
		case state.Animating && i == state.Target:
			marks = append(marks, r.styles.MarkerTarget.Render("◉"))
		default:
			marks = append(marks, r.styles.Marker.Render("○"))
		}
	}
	right := strings.Join(marks, " ")
	if n := len(state.SectionTitles); n > 0 {
		right = fmt.Sprintf("%s  %d/%d", right, state.Current+1, n)
	}

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - lipgloss.Width(logo) - lipgloss.Width(right)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + right
}

// renderWindow cuts the visible rows out of the stacked sections
func (r *Renderer) renderWindow(state ViewState) string {
	rows := make([]string, state.Viewport)
	for i := range rows {
		if idx := state.Top + i; idx >= 0 && idx < len(state.Lines) {
			rows[i] = state.Lines[idx]
		}
	}

	if state.ShowDebug {
		panel := strings.Split(r.renderDebug(state.Debug), "\n")
		start := len(rows) - len(panel)
		if start < 0 {
			start = 0
		}
		for i := start; i < len(rows); i++ {
			rows[i] = panel[i-start]
		}
	}
	return strings.Join(rows, "\n")
}

func (r *Renderer) renderStatus(state ViewState) string {
	var line string
	switch {
	case state.GotoMode:
		line = r.styles.Goto.Render("goto: ") + state.GotoInput
	case state.StatusIsError:
		line = r.styles.StatusError.Render(state.Status)
	case state.Status != "":
		line = r.styles.Status.Render(state.Status)
	case state.Current >= 0 && state.Current < len(state.SectionTitles):
		line = r.styles.Dim.Render(state.SectionTitles[state.Current])
	}
	if state.Ready {
		line += " " + ReadyMarker
	}
	return line
}

// renderOverlay boxes content and centers it over the section area.
// Lines that would not fit inside the border are cut.
func (r *Renderer) renderOverlay(content string, width, height int) string {
	if height > 2 {
		if lines := strings.Split(content, "\n"); len(lines) > height-2 {
			content = strings.Join(lines[:height-2], "\n")
		}
	}
	box := r.styles.InfoBox.Render(content)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
