package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/murmur/internal/config"
	"github.com/dgnsrekt/murmur/internal/tts"
)

const (
	statusMessageTimeout = 3 * time.Second
	tickInterval         = 100 * time.Millisecond
)

// Speaker is the part of tts.Speaker the TUI drives.
type Speaker interface {
	Speak(ctx context.Context, req tts.Request) (*tts.Result, error)
	Stop() error
	Busy() bool
}

// speakDoneMsg carries the outcome of a Speak call. seq identifies the
// request that produced it.
type speakDoneMsg struct {
	seq    int
	result *tts.Result
	err    error
}

// stopDoneMsg is sent after the speaker has been stopped.
type stopDoneMsg struct {
	err error
}

// playbackFinishedMsg is sent when a session reaches the end of its audio.
type playbackFinishedMsg struct {
	id uint64
}

// ConfigChangedMsg is sent when the config file changes on disk.
type ConfigChangedMsg struct {
	Config config.Config
}

type statusMessageTimeoutMsg struct {
	seq int
}

type tickMsg time.Time

func speakCmd(s Speaker, req tts.Request, seq int) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Speak(context.Background(), req)
		return speakDoneMsg{seq: seq, result: res, err: err}
	}
}

func stopCmd(s Speaker) tea.Cmd {
	return func() tea.Msg {
		return stopDoneMsg{err: s.Stop()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func statusTimeoutCmd(seq int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{seq: seq}
	})
}
