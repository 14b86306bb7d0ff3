package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down         key.Binding
	First, Last      key.Binding
	PreviewUp        key.Binding
	PreviewDown      key.Binding
	PageUp, PageDown key.Binding
	NextSender       key.Binding
	Choose, Quit     key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// Letters go to the filter box, so every binding uses a control or
// navigation key.
var keys = keyMap{
	Up:          binding("up/C-k", "up", "up", "ctrl+k", "ctrl+p"),
	Down:        binding("dn/C-j", "down", "down", "ctrl+j", "ctrl+n"),
	First:       binding("home", "first", "home"),
	Last:        binding("end", "last", "end"),
	PreviewUp:   binding("C-u", "preview up", "ctrl+u"),
	PreviewDown: binding("C-d", "preview down", "ctrl+d"),
	PageUp:      binding("pgup", "preview pgup", "pgup"),
	PageDown:    binding("pgdn", "preview pgdn", "pgdown"),
	NextSender:  binding("tab", "next sender", "tab"),
	Choose:      binding("enter", "copy", "enter"),
	Quit:        binding("esc", "quit", "esc", "ctrl+c"),
}
