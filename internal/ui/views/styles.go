package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Heading       lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Goto          lipgloss.Style
	Help          lipgloss.Style
	InfoBox       lipgloss.Style
	DebugBox      lipgloss.Style
	DebugKey      lipgloss.Style
	Marker        lipgloss.Style
	MarkerCurrent lipgloss.Style
	MarkerTarget  lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1),
		Dim:           lipgloss.NewStyle().Faint(true),
		Status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Goto:          lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Help:          lipgloss.NewStyle().Faint(true),
		InfoBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(1, 2).
			BorderForeground(lipgloss.Color("241")),
		DebugBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.Color("33")),
		DebugKey:      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Marker:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		MarkerCurrent: lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		MarkerTarget:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
