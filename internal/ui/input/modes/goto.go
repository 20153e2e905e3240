package modes

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"storyscroll/internal/ui/input/types"
)

// GotoMode reads a section name or 1-based number into the shared text input.
// Keys it does not claim are left for the handler to feed to the input.
type GotoMode struct {
	input *textinput.Model
}

func NewGotoMode(ti *textinput.Model) *GotoMode {
	return &GotoMode{input: ti}
}

func (m *GotoMode) Name() string { return "goto" }

// Text marks the mode as editing the shared text input
func (m *GotoMode) Text() bool { return true }

func (m *GotoMode) Enter(types.Context) []types.Action {
	m.input.Reset()
	m.input.Prompt = ""
	m.input.Placeholder = "section name or number"
	m.input.Focus()
	return nil
}

func (m *GotoMode) Exit(types.Context) []types.Action {
	m.input.Blur()
	m.input.Reset()
	return nil
}

func (m *GotoMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return []types.Action{types.QuitAction{Force: true}}, true
	case tea.KeyEsc:
		return []types.Action{types.CancelTextAction{}, types.ChangeModeAction{Mode: types.ModeNormal}}, true
	case tea.KeyEnter:
		return []types.Action{
			types.SubmitTextAction{Text: strings.TrimSpace(m.input.Value()), Mode: types.ModeGoto},
			types.ChangeModeAction{Mode: types.ModeNormal},
		}, true
	case tea.KeyTab:
		name := complete(m.input.Value(), ctx.SectionNames())
		if name == "" {
			return nil, true
		}
		m.input.SetValue(name)
		m.input.CursorEnd()
		return []types.Action{types.UpdateTextAction{Text: name}}, true
	}
	return nil, false
}

// complete returns the first name with the given prefix
func complete(prefix string, names []string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return ""
	}
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), prefix) {
			return n
		}
	}
	return ""
}
