package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"storyscroll/internal/domain"
)

// SectionRenderer turns a section into terminal lines
type SectionRenderer struct {
	styles   *Styles
	markdown bool
	width    int
	term     *glamour.TermRenderer
}

// NewSectionRenderer creates a renderer; markdown selects glamour over plain wrapping
func NewSectionRenderer(styles *Styles, markdown bool) *SectionRenderer {
	return &SectionRenderer{styles: styles, markdown: markdown, width: 80}
}

// SetWidth changes the wrap width
func (r *SectionRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.term != nil {
		return
	}
	r.width = width
	r.term = nil
	if !r.markdown {
		return
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		r.term = term
	}
}

// Render returns the section's lines, padded to at least minHeight rows
func (r *SectionRenderer) Render(sec domain.Section, minHeight int) []string {
	var body string
	if r.markdown && r.term != nil {
		out, err := r.term.Render(sec.Body)
		if err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	if body == "" {
		body = r.plain(sec)
	}

	lines := strings.Split(body, "\n")
	height := minHeight
	if sec.Height > height {
		height = sec.Height
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (r *SectionRenderer) plain(sec domain.Section) string {
	var b strings.Builder
	text := strings.TrimSpace(sec.Body)
	if sec.Title != "" && !strings.HasPrefix(text, "#") {
		b.WriteString(r.styles.Heading.Render(sec.Title))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Width(r.width - 4).PaddingLeft(2).Render(text))
	return b.String()
}
