package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/user/mview/internal/config"
)

// KeyMap defines the keybindings for normal mode.
type KeyMap struct {
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Search     key.Binding
	Filter     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	Follow     key.Binding
}

// NewKeyMap builds a KeyMap from the configured bindings.
func NewKeyMap(kb config.KeybindingConfig) KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys(kb.Quit...),
			key.WithHelp("q", "quit"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys(kb.ScrollUp...),
			key.WithHelp("↑/k", "up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys(kb.ScrollDown...),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys(kb.PageUp...),
			key.WithHelp("b", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys(kb.PageDown...),
			key.WithHelp("space", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys(kb.Top...),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys(kb.Bottom...),
			key.WithHelp("G", "bottom"),
		),
		Search: key.NewBinding(
			key.WithKeys(kb.Search...),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys(kb.Filter...),
			key.WithHelp("&", "filter"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys(kb.NextMatch...),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys(kb.PrevMatch...),
			key.WithHelp("N", "prev match"),
		),
		Follow: key.NewBinding(
			key.WithKeys(kb.Follow...),
			key.WithHelp("f", "follow"),
		),
	}
}
