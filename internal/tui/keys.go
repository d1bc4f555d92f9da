package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines keybindings for the progress view
type KeyMap struct {
	mode string
}

// NewKeyMap creates a new keymap for the given mode ("vim" or "standard")
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

// IsUp returns true if the key moves the selection up
func (k *KeyMap) IsUp(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyUp {
		return true
	}
	return k.mode == "vim" && msg.String() == "k"
}

// IsDown returns true if the key moves the selection down
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyDown {
		return true
	}
	return k.mode == "vim" && msg.String() == "j"
}

// IsHome returns true if the key should select the first action
func (k *KeyMap) IsHome(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyHome {
		return true
	}
	return k.mode == "vim" && msg.String() == "g"
}

// IsEnd returns true if the key should select the last action
func (k *KeyMap) IsEnd(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyEnd {
		return true
	}
	return k.mode == "vim" && msg.String() == "G"
}

// IsTogglePause returns true if the key pauses or resumes the selected download
func (k *KeyMap) IsTogglePause(msg tea.KeyMsg) bool {
	return msg.String() == "p" || msg.String() == " "
}

// IsCancel returns true if the key cancels the whole batch
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc || msg.String() == "c"
}

// IsQuit returns true if the key is a quit key
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsHelp returns true if the key should toggle the full help
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// NavigationHelp returns the one-line footer help
func (k *KeyMap) NavigationHelp() string {
	if k.mode == "vim" {
		return "j/k: select  p: pause/resume  c: cancel  q: quit  ?: help"
	}
	return "↑/↓: select  p: pause/resume  Esc: cancel  q: quit  ?: help"
}

// FullHelp returns complete help text
func (k *KeyMap) FullHelp() string {
	if k.mode == "vim" {
		return `Navigation:
  j/k     Select next/previous update
  g/G     Select first/last update

Actions:
  p       Pause or resume the selected download
  space   Pause or resume the selected download
  c       Cancel remaining updates
  ?       Toggle help
  q       Cancel and quit`
	}

	return `Navigation:
  ↑/↓     Select next/previous update
  Home    Select first update
  End     Select last update

Actions:
  p       Pause or resume the selected download
  Space   Pause or resume the selected download
  Esc     Cancel remaining updates
  ?       Toggle help
  q       Cancel and quit`
}
