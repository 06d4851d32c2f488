// Package main provides the entry point for the murmur CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/config"
	"github.com/dgnsrekt/murmur/ui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	markdown   bool
	debug      bool

	// cfg is the configuration resolved before each command runs.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "murmur",
		Short: "Speak text from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nType text and %s.", keyword("hear it spoken")),
		),
		SilenceErrors:     false,
		SilenceUsage:      true,
		TraverseChildren:  true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: validateOptions,
		RunE:              execute,
	}
)

func validateOptions(cmd *cobra.Command, _ []string) error {
	if debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	path, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	configFile = path

	// The config command must work even when the file is broken.
	if cmd == configCmd {
		return nil
	}

	c, err := config.LoadFromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", configFile, err)
	}
	cfg = c
	return nil
}

// loadConfig reads .env files and the config file into v. It returns the
// path of the config file, which may not exist yet.
func loadConfig(v *viper.Viper) (string, error) {
	dirs, err := config.ConfigDirs()
	if err != nil {
		return "", err
	}

	if err := config.LoadDotEnv(".env", filepath.Join(dirs[0], ".env")); err != nil {
		return "", err
	}

	return config.ReadInConfig(v, configFile, dirs)
}

func execute(*cobra.Command, []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive mode needs a terminal; use 'murmur say' instead")
	}
	return runTUI()
}

func runTUI() error {
	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	uiCfg.Engine = cfg.Engine
	uiCfg.Voice = cfg.Voice
	uiCfg.Rate = cfg.Rate
	uiCfg.Pitch = cfg.Pitch
	uiCfg.Markdown = uiCfg.Markdown || markdown

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p := ui.NewProgram(uiCfg, ui.Deps{
		Speaker:    a.speaker,
		Player:     a.player,
		CacheStats: a.cacheStats,
		ClearCache: a.clearCache,
	})

	if viper.ConfigFileUsed() != "" {
		config.Watch(viper.GetViper(), func(c config.Config) {
			p.Send(ui.ConfigChangedMsg{Config: c})
		})
	}

	// Run Bubble Tea program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	d := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/murmur/murmur.yml)")
	flags.String("engine", d.Engine, fmt.Sprintf("synthesis engine %v", config.Engines))
	flags.String("voice", d.Voice, "voice name (see 'murmur voices')")
	flags.Float64("rate", d.Rate, "speaking rate (0.25 to 1.5)")
	flags.Int("pitch", d.Pitch, "pitch in semitones (-20 to 20)")
	flags.Float64("volume", d.Volume, "playback volume (0.0 to 1.0)")
	flags.String("backend", d.Audio.Backend, fmt.Sprintf("audio backend %v", config.Backends))
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9090")
	flags.BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.Flags().BoolVarP(&markdown, "markdown", "m", false, "strip markdown formatting before speaking")

	// Config bindings
	_ = viper.BindPFlag("engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("pitch", flags.Lookup("pitch"))
	_ = viper.BindPFlag("volume", flags.Lookup("volume"))
	_ = viper.BindPFlag("audio.backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(sayCmd, voicesCmd, configCmd, manCmd)
}
