package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Back    key.Binding
	Open    key.Binding
	Switch  key.Binding
	Format  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Retry   key.Binding
	Refresh key.Binding
	Play    key.Binding
	Step    key.Binding
	Save    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Switch, k.Confirm, k.Cancel, k.Play, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Open, k.Switch},
		{k.Format, k.Confirm, k.Cancel, k.Retry, k.Refresh},
		{k.Play, k.Step, k.Save, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Back: key.NewBinding(
		key.WithKeys("left", "backspace", "h"),
		key.WithHelp("←/h", "parent dir"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "right", "l"),
		key.WithHelp("enter", "open / load"),
	),
	Switch: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch pane"),
	),
	Format: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "source type"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "cancel"),
	),
	Retry: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "retry"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Play: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "play/pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "step"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save manifest"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
