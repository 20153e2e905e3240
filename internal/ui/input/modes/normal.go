package modes

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"storyscroll/internal/input"
	"storyscroll/internal/ui/input/types"
)

type NormalMode struct {
	keys types.KeyMap
}

func NewNormalMode(keys types.KeyMap) *NormalMode {
	return &NormalMode{keys: keys}
}

func (m *NormalMode) Name() string {
	return "normal"
}

func (m *NormalMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	if msg.Type == tea.KeyCtrlC {
		return []types.Action{types.QuitAction{Force: true}}, true
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return []types.Action{types.QuitAction{}}, true
	case key.Matches(msg, m.keys.Help):
		return []types.Action{types.ToggleHelpAction{}}, true
	case key.Matches(msg, m.keys.Debug):
		return []types.Action{types.ToggleDebugAction{}}, true
	case key.Matches(msg, m.keys.Emergency):
		return []types.Action{types.EmergencyAction{}}, true
	case key.Matches(msg, m.keys.Sync):
		return []types.Action{types.ForceSyncAction{}}, true
	case key.Matches(msg, m.keys.Pager):
		return []types.Action{types.OpenPagerAction{}}, true
	case key.Matches(msg, m.keys.Goto):
		return []types.Action{types.ChangeModeAction{Mode: types.ModeGoto}}, true
	}

	// 1-9 jump straight to a section
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		n, _ := strconv.Atoi(string(msg.Runes))
		if n <= ctx.SectionCount() {
			return []types.Action{types.GotoIndexAction{Index: n - 1}}, true
		}
		return nil, false
	}

	if intent := input.MapKey(msg.String(), ctx.Inverted()); intent != input.IntentNone {
		return []types.Action{types.NavigateAction{Intent: intent}}, true
	}
	return nil, false
}
