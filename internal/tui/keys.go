package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings of the now-playing view.
type keyMap struct {
	Toggle key.Binding
	Play   key.Binding
	Pause  key.Binding
	Dir    key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "play/pause"),
	),
	Play: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "play"),
	),
	Pause: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "pause"),
	),
	Dir: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "change folder"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Dir, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Play, k.Pause},
		{k.Dir, k.Quit},
	}
}

// Input keys are active while the folder prompt is open.
var (
	inputSubmit = key.NewBinding(key.WithKeys("enter"))
	inputCancel = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
)
