package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab     key.Binding
	PrevTab     key.Binding
	TabAll      key.Binding
	TabPending  key.Binding
	TabComplete key.Binding
	Up          key.Binding
	Down        key.Binding
	Complete    key.Binding
	Delete      key.Binding
	CompleteAll key.Binding
	DeleteAll   key.Binding
	New         key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		TabAll:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		TabPending:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "pending")),
		TabComplete: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Complete:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "complete")),
		Delete:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		CompleteAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "complete all")),
		DeleteAll:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete all")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Complete, k.Delete, k.New, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.TabAll, k.TabPending, k.TabComplete},
		{k.Up, k.Down, k.Complete, k.Delete},
		{k.CompleteAll, k.DeleteAll, k.New, k.Refresh},
		{k.Help, k.Quit},
	}
}
