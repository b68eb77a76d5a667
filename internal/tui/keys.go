package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	ExtendUp  key.Binding
	ExtendDn  key.Binding
	Toggle    key.Binding
	SelectAll key.Binding
	Uninstall key.Binding
	Confirm   key.Binding
	Deny      key.Binding
	Cancel    key.Binding
	Rescan    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		ExtendUp:  key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("shift+↑", "extend up")),
		ExtendDn:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("shift+↓", "extend down")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		Uninstall: key.NewBinding(key.WithKeys("u", "enter"), key.WithHelp("u/enter", "uninstall selected")),
		Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Deny:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "back")),
		Cancel:    key.NewBinding(key.WithKeys("c", "esc"), key.WithHelp("c", "cancel"), key.WithDisabled()),
		Rescan:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// setRunning flips the bindings that only make sense on one side of a run.
func (k *keyMap) setRunning(running bool) {
	k.Cancel.SetEnabled(running)
	k.Uninstall.SetEnabled(!running)
	k.SelectAll.SetEnabled(!running)
	k.Toggle.SetEnabled(!running)
	k.ExtendUp.SetEnabled(!running)
	k.ExtendDn.SetEnabled(!running)
	k.Rescan.SetEnabled(!running)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SelectAll, k.Uninstall, k.Cancel, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ExtendUp, k.ExtendDn},
		{k.Toggle, k.SelectAll, k.Uninstall, k.Rescan},
		{k.Cancel, k.Help, k.Quit},
	}
}
