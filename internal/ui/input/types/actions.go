package types

import "storyscroll/internal/input"

// NavigateAction moves by a gesture intent
type NavigateAction struct {
	Intent input.Intent
}

func (a NavigateAction) Type() string { return "navigate" }

// GotoIndexAction jumps to a zero-based section index
type GotoIndexAction struct {
	Index int
}

func (a GotoIndexAction) Type() string { return "goto_index" }

// ForceSyncAction re-seats the position on the current section
type ForceSyncAction struct{}

func (a ForceSyncAction) Type() string { return "force_sync" }

// EmergencyAction tears the controller down and resets it
type EmergencyAction struct{}

func (a EmergencyAction) Type() string { return "emergency" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type ToggleDebugAction struct{}

func (a ToggleDebugAction) Type() string { return "toggle_debug" }

// OpenPagerAction shows the current section in a pager
type OpenPagerAction struct{}

func (a OpenPagerAction) Type() string { return "open_pager" }

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
	Mode Mode // Which mode submitted the text
}

func (a SubmitTextAction) Type() string { return "submit_text" }

type CancelTextAction struct{}

func (a CancelTextAction) Type() string { return "cancel_text" }

type QuitAction struct {
	Force bool
}

func (a QuitAction) Type() string { return "quit" }
