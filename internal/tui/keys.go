package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// helpLine renders the bindings as " [q]Quit".
func (k keyMap) helpLine() string {
	h := k.Quit.Help()
	return " [" + h.Key + "]" + h.Desc
}
