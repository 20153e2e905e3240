package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"storyscroll/internal/ui/input/modes"
	"storyscroll/internal/ui/input/types"
)

// textMode is implemented by modes that edit the shared text input
type textMode interface {
	Text() bool
}

// Handler routes keys to the active mode and applies mode changes
type Handler struct {
	mode  types.Mode
	modes map[types.Mode]types.ModeHandler
	text  textinput.Model
}

func New(keys types.KeyMap) *Handler {
	h := &Handler{mode: types.ModeNormal, text: textinput.New()}
	h.modes = map[types.Mode]types.ModeHandler{
		types.ModeNormal: modes.NewNormalMode(keys),
		types.ModeGoto:   modes.NewGotoMode(&h.text),
	}
	return h
}

// HandleKey returns the actions for msg, with ChangeModeAction already applied
func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, tea.Cmd) {
	active := h.modes[h.mode]
	if active == nil {
		return nil, nil
	}

	actions, consumed := active.HandleKey(msg, ctx)
	if !consumed {
		if !h.editing() {
			return nil, nil
		}
		var cmd tea.Cmd
		h.text, cmd = h.text.Update(msg)
		return []types.Action{types.UpdateTextAction{Text: h.text.Value()}}, cmd
	}

	var out []types.Action
	var cmd tea.Cmd
	for _, a := range actions {
		change, ok := a.(types.ChangeModeAction)
		if !ok {
			out = append(out, a)
			continue
		}
		out = append(out, h.switchTo(change.Mode, ctx)...)
		if h.editing() {
			cmd = textinput.Blink
		}
	}
	return out, cmd
}

func (h *Handler) switchTo(mode types.Mode, ctx types.Context) []types.Action {
	var out []types.Action
	if cur := h.modes[h.mode]; cur != nil {
		out = append(out, cur.Exit(ctx)...)
	}
	h.mode = mode
	if next := h.modes[mode]; next != nil {
		out = append(out, next.Enter(ctx)...)
	}
	return out
}

func (h *Handler) CurrentMode() types.Mode {
	return h.mode
}

// TextInput is the prompt being edited, or nil outside text modes
func (h *Handler) TextInput() *textinput.Model {
	if !h.editing() {
		return nil
	}
	return &h.text
}

// Update forwards non-key messages such as cursor blinks to the prompt
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	if !h.editing() {
		return nil
	}
	var cmd tea.Cmd
	h.text, cmd = h.text.Update(msg)
	return cmd
}

func (h *Handler) editing() bool {
	t, ok := h.modes[h.mode].(textMode)
	return ok && t.Text()
}
