package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Initial prosody and voice, from the murmur config.
	Voice string
	Rate  float64
	Pitch int

	// Engine is shown in the status bar.
	Engine string

	// Markdown strips markdown formatting before speaking.
	Markdown bool `env:"MURMUR_MARKDOWN" envDefault:"false"`

	// For debugging the UI
	AltScreen bool `env:"MURMUR_ALT_SCREEN" envDefault:"true"`
	ShowHelp  bool `env:"MURMUR_SHOW_HELP" envDefault:"true"`
}
