package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter address")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// screenKeys is the help.KeyMap for one screen.
type screenKeys []key.Binding

func (k screenKeys) ShortHelp() []key.Binding  { return k }
func (k screenKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

func (m Model) helpKeys() screenKeys {
	k := m.keys
	switch m.screen {
	case screenDiscover:
		if m.manual {
			return screenKeys{k.Enter, k.Back}
		}
		return screenKeys{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
	case screenNetworks:
		return screenKeys{k.Up, k.Down, k.Enter, k.Rescan, k.Back, k.Quit}
	case screenPassword:
		return screenKeys{k.Enter, k.Back}
	case screenResult:
		return screenKeys{k.Rescan, k.Quit}
	default:
		return screenKeys{k.Quit}
	}
}
