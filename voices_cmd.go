package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/murmur/internal/tts"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	voicesPlain bool

	voicesCmd = &cobra.Command{
		Use:   "voices [QUERY]",
		Short: "List the available voices",
		Long: paragraph(fmt.Sprintf("\n%s the voices murmur can speak with. "+
			"A query fuzzy-matches voice names.", keyword("List"))),
		Example: paragraph("murmur voices\nmurmur voices gb\nmurmur voices --plain"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voices := tts.Voices()
			if len(args) == 1 {
				voices = matchVoices(args[0])
				if len(voices) == 0 {
					return fmt.Errorf("no voice matches %q", args[0])
				}
			}

			if voicesPlain {
				for _, v := range voices {
					fmt.Fprintln(cmd.OutOrStdout(), v.Name)
				}
				return nil
			}

			out, err := renderVoices(voices, cfg.Voice)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
)

func init() {
	voicesCmd.Flags().BoolVar(&voicesPlain, "plain", false, "print one voice name per line")
}

func matchVoices(query string) []tts.Voice {
	var voices []tts.Voice
	for _, name := range tts.SuggestVoices(query, len(tts.Voices())) {
		v, err := tts.LookupVoice(name)
		if err == nil {
			voices = append(voices, v)
		}
	}
	return voices
}

// voicesMarkdown returns the voice table as markdown. The current voice is
// marked with an asterisk.
func voicesMarkdown(voices []tts.Voice, current string) string {
	var b strings.Builder
	b.WriteString("| Voice | Language | Gender | Family |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, v := range voices {
		name := v.Name
		if name == current {
			name += " *"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, v.LanguageCode(), v.Gender, v.Family())
	}
	return b.String()
}

func renderVoices(voices []tts.Voice, current string) (string, error) {
	style := styles.AutoStyle
	width := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w < 120 {
			width = w
		}
	} else {
		style = styles.NoTTYStyle
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(voicesMarkdown(voices, current))
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
