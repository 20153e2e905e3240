package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gesture "storyscroll/internal/input"
	"storyscroll/internal/ui/input/types"
)

type fakeContext struct {
	current int
	names   []string
	invert  bool
}

func (c fakeContext) CurrentSection() int    { return c.current }
func (c fakeContext) SectionCount() int      { return len(c.names) }
func (c fakeContext) SectionNames() []string { return c.names }
func (c fakeContext) Inverted() bool         { return c.invert }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationKeysProduceIntents(t *testing.T) {
	h := New(types.DefaultKeyMap())
	ctx := fakeContext{names: []string{"hero", "about", "contact"}}

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want gesture.Intent
	}{
		{"j", runes("j"), gesture.IntentForward},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, gesture.IntentForward},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, gesture.IntentForward},
		{"pgup", tea.KeyMsg{Type: tea.KeyPgUp}, gesture.IntentBackward},
		{"k", runes("k"), gesture.IntentBackward},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, gesture.IntentFirst},
		{"G", runes("G"), gesture.IntentLast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, _ := h.HandleKey(tt.msg, ctx)
			require.Len(t, actions, 1)
			assert.Equal(t, types.NavigateAction{Intent: tt.want}, actions[0])
		})
	}
}

func TestInvertFlipsDirection(t *testing.T) {
	h := New(types.DefaultKeyMap())
	actions, _ := h.HandleKey(runes("j"), fakeContext{names: []string{"a", "b"}, invert: true})
	require.Len(t, actions, 1)
	assert.Equal(t, types.NavigateAction{Intent: gesture.IntentBackward}, actions[0])
}

func TestCommandKeys(t *testing.T) {
	h := New(types.DefaultKeyMap())
	ctx := fakeContext{names: []string{"a", "b"}}

	tests := []struct {
		key  tea.KeyMsg
		want types.Action
	}{
		{runes("q"), types.QuitAction{}},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, types.QuitAction{Force: true}},
		{runes("?"), types.ToggleHelpAction{}},
		{runes("d"), types.ToggleDebugAction{}},
		{runes("e"), types.EmergencyAction{}},
		{runes("s"), types.ForceSyncAction{}},
		{runes("p"), types.OpenPagerAction{}},
		{runes("2"), types.GotoIndexAction{Index: 1}},
	}
	for _, tt := range tests {
		actions, _ := h.HandleKey(tt.key, ctx)
		require.Len(t, actions, 1, tt.key.String())
		assert.Equal(t, tt.want, actions[0], tt.key.String())
	}

	actions, _ := h.HandleKey(runes("7"), ctx)
	assert.Empty(t, actions, "number beyond the last section")
	actions, _ = h.HandleKey(runes("x"), ctx)
	assert.Empty(t, actions)
}

func TestGotoModeSubmitsTypedName(t *testing.T) {
	h := New(types.DefaultKeyMap())
	ctx := fakeContext{names: []string{"hero", "about", "contact"}}

	_, cmd := h.HandleKey(runes(":"), ctx)
	assert.NotNil(t, cmd)
	require.Equal(t, types.ModeGoto, h.CurrentMode())
	require.NotNil(t, h.TextInput())

	actions, _ := h.HandleKey(runes("j"), ctx)
	assert.Equal(t, []types.Action{types.UpdateTextAction{Text: "j"}}, actions, "letters are text in goto mode")

	h.TextInput().SetValue("ab")
	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyTab}, ctx)
	assert.Equal(t, []types.Action{types.UpdateTextAction{Text: "about"}}, actions)

	actions, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}, ctx)
	require.NotEmpty(t, actions)
	assert.Equal(t, types.SubmitTextAction{Text: "about", Mode: types.ModeGoto}, actions[0])
	assert.Equal(t, types.ModeNormal, h.CurrentMode())
	assert.Nil(t, h.TextInput())
}

func TestGotoModeEscCancels(t *testing.T) {
	h := New(types.DefaultKeyMap())
	ctx := fakeContext{names: []string{"a"}}

	h.HandleKey(runes(":"), ctx)
	actions, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeyEsc}, ctx)
	assert.Contains(t, actions, types.Action(types.CancelTextAction{}))
	assert.Equal(t, types.ModeNormal, h.CurrentMode())
}
