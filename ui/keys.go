package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Speak      key.Binding
	Stop       key.Binding
	NextVoice  key.Binding
	PrevVoice  key.Binding
	Faster     key.Binding
	Slower     key.Binding
	PitchUp    key.Binding
	PitchDown  key.Binding
	Clear      key.Binding
	ClearCache key.Binding
	ToggleHelp key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Speak: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "speak"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		NextVoice: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next voice"),
		),
		PrevVoice: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev voice"),
		),
		Faster: key.NewBinding(
			key.WithKeys("alt+."),
			key.WithHelp("alt+.", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("alt+,"),
			key.WithHelp("alt+,", "slower"),
		),
		PitchUp: key.NewBinding(
			key.WithKeys("alt+="),
			key.WithHelp("alt+=", "pitch up"),
		),
		PitchDown: key.NewBinding(
			key.WithKeys("alt+-"),
			key.WithHelp("alt+-", "pitch down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "clear cache"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Speak, k.Stop, k.NextVoice, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Speak, k.Stop, k.Clear, k.ClearCache},
		{k.NextVoice, k.PrevVoice},
		{k.Faster, k.Slower, k.PitchUp, k.PitchDown},
		{k.ToggleHelp, k.Quit},
	}
}
