package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/murmur/internal/tts"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	sayStdin     bool
	sayClipboard bool
	sayMarkdown  bool
	sayQuiet     bool

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text and wait for playback to finish",
		Long: paragraph(fmt.Sprintf("\n%s the given text, standard input or the clipboard, "+
			"then exit once playback finishes. Press ctrl+c to stop early.", keyword("Speak"))),
		Example: paragraph("murmur say Hello there\n" +
			"echo 'Hello' | murmur say\n" +
			"murmur say --clipboard --rate 0.8\n" +
			"murmur say --markdown < README.md"),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSay,
	}

	dim = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render
	bad = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render
)

func init() {
	sayCmd.Flags().BoolVar(&sayStdin, "stdin", false, "read text from standard input")
	sayCmd.Flags().BoolVarP(&sayClipboard, "clipboard", "c", false, "read text from the clipboard")
	sayCmd.Flags().BoolVarP(&sayMarkdown, "markdown", "m", false, "strip markdown formatting before speaking")
	sayCmd.Flags().BoolVarP(&sayQuiet, "quiet", "q", false, "do not print playback details")
	sayCmd.MarkFlagsMutuallyExclusive("stdin", "clipboard")
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// sayText resolves the text to speak from the arguments and flags.
func sayText(args []string, stdin io.Reader) (string, error) {
	switch {
	case sayClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("unable to read clipboard: %w", err)
		}
		return s, nil

	case sayStdin || (len(args) == 1 && args[0] == "-"):
		return readAll(stdin)

	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		return readAll(stdin)
	}
	return "", errors.New("nothing to say: pass text, --stdin or --clipboard")
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), nil
}

func runSay(cmd *cobra.Command, args []string) error {
	text, err := sayText(args, os.Stdin)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), bad(err.Error()))
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), bad(err.Error()))
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return speakAndWait(ctx, a.speaker, tts.Request{
		Text:     text,
		Voice:    cfg.Voice,
		Rate:     cfg.Rate,
		Pitch:    cfg.Pitch,
		Markdown: sayMarkdown,
	}, cmd.ErrOrStderr())
}

// speakAndWait speaks req and blocks until playback ends or ctx is done.
func speakAndWait(ctx context.Context, s *tts.Speaker, req tts.Request, w io.Writer) error {
	res, err := s.Speak(ctx, req)
	if err != nil {
		fmt.Fprintln(w, bad(tts.UserMessage(err)))
		return err
	}

	if !sayQuiet {
		src := "synthesized"
		if res.CacheHit {
			src = "cached"
		}
		fmt.Fprintln(w, dim(fmt.Sprintf("%s · %s · %s in %s · %s",
			res.Voice.Name,
			res.Buffer.Duration().Round(100*time.Millisecond),
			src,
			res.Elapsed.Round(time.Millisecond),
			humanize.Comma(int64(res.Buffer.Frames()))+" frames",
		)))
	}

	select {
	case <-res.Session.Done():
		return nil
	case <-ctx.Done():
		_ = s.Stop()
		fmt.Fprintln(w, dim(tts.UserMessage(tts.ErrSuperseded)))
		return nil
	}
}
