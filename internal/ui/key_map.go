package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	add      key.Binding
	refresh  key.Binding
	provider key.Binding
	theme    key.Binding
	open     key.Binding
	logout   key.Binding
	next     key.Binding
	mode     key.Binding
	quit     key.Binding
	abort    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add artist")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		provider: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "switch provider")),
		theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open profile")),
		logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		next:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		mode:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "log in / sign up")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		abort:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.add, k.refresh, k.provider, k.open},
		{k.theme, k.logout, k.quit},
	}
}
