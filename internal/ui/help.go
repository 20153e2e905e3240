package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpRenderer handles help content rendering
type HelpRenderer struct{}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer() *HelpRenderer {
	return &HelpRenderer{}
}

type helpEntry struct {
	keys string
	desc string
}

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Navigation", []helpEntry{
		{"↓/j, PgDn, Space", "Next section"},
		{"↑/k, PgUp", "Previous section"},
		{"g/Home, G/End", "First / last section"},
		{"1-9", "Jump to section"},
		{":", "Go to section by name (Tab completes)"},
		{"wheel", "One section per gesture"},
	}},
	{"Recovery", []helpEntry{
		{"s", "Force sync to the current section"},
		{"e", "Emergency reset"},
	}},
	{"Other", []helpEntry{
		{"p", "Open section in pager"},
		{"d", "Toggle debug panel"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}},
}

// renderHelpContent renders the help information
func (r *HelpRenderer) renderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	width := 0
	for _, s := range helpSections {
		for _, e := range s.entries {
			if w := lipgloss.Width(e.keys); w > width {
				width = w
			}
		}
	}

	var help strings.Builder
	help.WriteString(titleStyle.Render("storyscroll Help"))
	help.WriteString("\n")
	for i, s := range helpSections {
		if i > 0 {
			help.WriteString("\n")
		}
		help.WriteString(sectionStyle.Render(s.title))
		help.WriteString("\n")
		for _, e := range s.entries {
			pad := strings.Repeat(" ", width-lipgloss.Width(e.keys))
			help.WriteString(fmt.Sprintf("  %s%s  %s\n", keyStyle.Render(e.keys), pad, descStyle.Render(e.desc)))
		}
	}
	return strings.TrimRight(help.String(), "\n")
}
