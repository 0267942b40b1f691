package display

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the kitchen display.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	ToggleView key.Binding
	Refresh    key.Binding

	// Mutations.
	Advance  key.Binding // Move the selected item one status forward.
	Complete key.Binding // Complete the selected receipt (grouped view).

	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	ToggleView: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "flat/grouped"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Advance: key.NewBinding(
		key.WithKeys("enter", " ", "space"),
		key.WithHelp("Enter", "next status"),
	),
	Complete: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "complete receipt"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) helpBindings() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Advance, k.Complete, k.ToggleView, k.Refresh, k.Quit}
}
