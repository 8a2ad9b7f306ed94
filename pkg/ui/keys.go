package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the grid bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	ToggleNode  key.Binding
	ToggleCell  key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	CheckAll    key.Binding
	UncheckAll  key.Binding
	Copy        key.Binding
	Write       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous row")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next row")),
		Left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous date")),
		Right:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next date")),
		ToggleNode:  key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter/tab", "expand or collapse")),
		ToggleCell:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle cell")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		CheckAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "check all")),
		UncheckAll:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "uncheck all")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy rerun request")),
		Write:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write rerun request")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Bindings returns every binding in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Left, k.Right,
		k.ToggleNode, k.ToggleCell,
		k.ExpandAll, k.CollapseAll,
		k.CheckAll, k.UncheckAll,
		k.Copy, k.Write, k.Help, k.Quit,
	}
}
