package types

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the viewer's key bindings. Navigation keys are matched by
// input.MapKey; their bindings here exist for the help footer.
type KeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	First     key.Binding
	Last      key.Binding
	Goto      key.Binding
	Sync      key.Binding
	Emergency key.Binding
	Debug     key.Binding
	Pager     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:      key.NewBinding(key.WithKeys("down", "j", "pgdown", " "), key.WithHelp("↓/j", "next")),
		Prev:      key.NewBinding(key.WithKeys("up", "k", "pgup"), key.WithHelp("↑/k", "prev")),
		First:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		Last:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Goto:      key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "goto")),
		Sync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		Emergency: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "emergency reset")),
		Debug:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "debug")),
		Pager:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pager")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Goto, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.Goto, k.Pager, k.Sync, k.Emergency},
		{k.Debug, k.Help, k.Quit},
	}
}
