//go:build !gui

package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	PageUp  key.Binding
	PageDn  key.Binding
	Mark    key.Binding
	Copy    key.Binding
	Clear   key.Binding
	Open    key.Binding
	TOC     key.Binding
	Submit  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Confirm key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:  key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup/b", "page up")),
		PageDn:  key.NewBinding(key.WithKeys("pgdown", " ", "f"), key.WithHelp("space/f", "page down")),
		Mark:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select lines")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy selection")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open book")),
		TOC:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
		Submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit text")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.PageDn, k.Mark, k.TOC, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDn},
		{k.Mark, k.Confirm, k.Copy, k.Clear},
		{k.TOC, k.Open, k.Submit, k.Help, k.Quit},
	}
}
