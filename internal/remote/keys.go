package remote

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the remote's key bindings
type keyMap struct {
	Toggle  key.Binding
	Up      key.Binding
	Down    key.Binding
	Warmer  key.Binding
	Cooler  key.Binding
	Reverse key.Binding
	Osc     key.Binding
	Pair    key.Binding
	Unpair  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Up, k.Down, k.Pair, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Up, k.Down, k.Warmer, k.Cooler},
		{k.Reverse, k.Osc, k.Pair, k.Unpair},
		{k.Refresh, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "on/off"),
		),
		Up: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "brighter/faster"),
		),
		Down: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "dimmer/slower"),
		),
		Warmer: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "warmer"),
		),
		Cooler: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cooler"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "direction"),
		),
		Osc: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "oscillate"),
		),
		Pair: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pair"),
		),
		Unpair: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u u", "unpair"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
