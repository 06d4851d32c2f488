// Package ui provides the interactive terminal front end.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/ssml"
	"github.com/dgnsrekt/murmur/internal/tts"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#6124DF")).
			Padding(0, 1)
	placeholder = "Type something to say…"
)

// Deps are the runtime collaborators of the TUI.
type Deps struct {
	Speaker Speaker

	// Player, if set, reports natural end of playback to the TUI and
	// follows volume changes in the config file.
	Player *audio.Player

	// CacheStats, if set, is shown in the status bar.
	CacheStats func() cache.Stats

	// ClearCache, if set, empties the payload cache.
	ClearCache func()
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting murmur",
		"engine",
		cfg.Engine,
		"voice",
		cfg.Voice,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	m := newModel(cfg, deps)
	p := tea.NewProgram(m, opts...)

	if deps.Player != nil {
		deps.Player.SetOnFinish(func(s *audio.Session) {
			p.Send(playbackFinishedMsg{id: s.ID()})
		})
	}
	return p
}

type model struct {
	cfg        Config
	speaker    Speaker
	player     *audio.Player
	cacheStats func() cache.Stats
	clearCache func()

	keys     keyMap
	help     help.Model
	input    textarea.Model
	spinner  spinner.Model
	status   statusDisplay
	showHelp bool

	width  int
	height int

	// Current playback.
	sessionID uint64
	startedAt time.Time

	// Sequence number of the latest speak request, and the phase it
	// replaced.
	requestSeq int
	prevPhase  phase

	// Sequence number of the current transient status message.
	statusSeq int
}

func newModel(cfg Config, deps Deps) model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	voice := cfg.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}

	return model{
		cfg:        cfg,
		speaker:    deps.Speaker,
		player:     deps.Player,
		cacheStats: deps.CacheStats,
		clearCache: deps.ClearCache,
		keys:       newKeyMap(),
		help:       help.New(),
		input:      ta,
		spinner:    sp,
		showHelp:   cfg.ShowHelp,
		status: statusDisplay{
			engine:  cfg.Engine,
			voice:   voice,
			prosody: ssml.Prosody{Rate: cfg.Rate, Pitch: cfg.Pitch}.Clamp(),
		},
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case speakDoneMsg:
		return m, m.handleSpeakDone(msg)

	case stopDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case playbackFinishedMsg:
		if msg.id == m.sessionID && m.status.phase == phasePlaying {
			m.status.phase = phaseIdle
			m.status.position = m.status.duration
		}
		return m, nil

	case tickMsg:
		if m.status.phase != phasePlaying {
			return m, nil
		}
		m.status.position = min(time.Since(m.startedAt), m.status.duration)
		return m, tickCmd()

	case spinner.TickMsg:
		if m.status.phase != phaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMessageTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.status.message = ""
		}
		return m, nil

	case ConfigChangedMsg:
		m.status.voice = msg.Config.Voice
		m.status.prosody = ssml.Prosody{Rate: msg.Config.Rate, Pitch: msg.Config.Pitch}.Clamp()
		if m.player != nil {
			if err := m.player.SetVolume(msg.Config.Volume); err != nil {
				log.Warn("Volume not applied", "error", err)
			}
		}
		return m, m.newStatusMessage("Config reloaded")
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes murmur's own bindings. Everything else goes to the
// text area.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.speaker != nil {
			_ = m.speaker.Stop()
		}
		return tea.Quit, true

	case key.Matches(msg, m.keys.Speak):
		return m.speak(), true

	case key.Matches(msg, m.keys.Stop):
		return m.stop(), true

	case key.Matches(msg, m.keys.NextVoice):
		m.status.voice = tts.NextVoice(m.status.voice, 1).Name
		return m.newStatusMessage("Voice: " + m.status.voice), true

	case key.Matches(msg, m.keys.PrevVoice):
		m.status.voice = tts.NextVoice(m.status.voice, -1).Name
		return m.newStatusMessage("Voice: " + m.status.voice), true

	case key.Matches(msg, m.keys.Faster):
		m.status.prosody.Rate = ssml.StepRate(m.status.prosody.Rate, 1)
		return m.newStatusMessage("Rate: " + m.status.prosody.RateAttr()), true

	case key.Matches(msg, m.keys.Slower):
		m.status.prosody.Rate = ssml.StepRate(m.status.prosody.Rate, -1)
		return m.newStatusMessage("Rate: " + m.status.prosody.RateAttr()), true

	case key.Matches(msg, m.keys.PitchUp):
		m.status.prosody.Pitch = ssml.ClampPitch(m.status.prosody.Pitch + 1)
		return m.newStatusMessage("Pitch: " + m.status.prosody.PitchAttr()), true

	case key.Matches(msg, m.keys.PitchDown):
		m.status.prosody.Pitch = ssml.ClampPitch(m.status.prosody.Pitch - 1)
		return m.newStatusMessage("Pitch: " + m.status.prosody.PitchAttr()), true

	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		return nil, true

	case key.Matches(msg, m.keys.ClearCache):
		if m.clearCache == nil {
			return m.newStatusMessage("Cache is disabled"), true
		}
		m.clearCache()
		return m.newStatusMessage("Cache cleared"), true

	case key.Matches(msg, m.keys.ToggleHelp):
		m.showHelp = !m.showHelp
		m.layout()
		return nil, true
	}
	return nil, false
}

// speak starts a request for the text area contents. A request made while
// another one is loading is rejected, including one that was stopped but
// has not returned yet.
func (m *model) speak() tea.Cmd {
	if m.status.phase == phaseLoading || m.speaker.Busy() {
		return m.newStatusMessage(tts.UserMessage(tts.ErrBusy))
	}

	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m.newStatusMessage("Nothing to say")
	}

	m.requestSeq++
	m.prevPhase = m.status.phase
	m.status.phase = phaseLoading
	m.status.errMsg = ""

	req := tts.Request{
		Text:     text,
		Voice:    m.status.voice,
		Rate:     m.status.prosody.Rate,
		Pitch:    m.status.prosody.Pitch,
		Markdown: m.cfg.Markdown,
	}
	return tea.Batch(speakCmd(m.speaker, req, m.requestSeq), m.spinner.Tick)
}

func (m *model) stop() tea.Cmd {
	if m.status.phase != phaseLoading && m.status.phase != phasePlaying {
		return nil
	}
	m.status.phase = phaseIdle
	m.status.position = 0
	m.sessionID = 0
	return tea.Batch(stopCmd(m.speaker), m.newStatusMessage(tts.UserMessage(tts.ErrSuperseded)))
}

func (m *model) handleSpeakDone(msg speakDoneMsg) tea.Cmd {
	if msg.seq != m.requestSeq || m.status.phase != phaseLoading {
		// Stopped or replaced while loading; stop already updated the state.
		return nil
	}

	if msg.err != nil {
		switch {
		case errors.Is(msg.err, tts.ErrSuperseded):
			m.status.phase = phaseIdle
			return nil
		case errors.Is(msg.err, tts.ErrBusy):
			m.status.phase = m.prevPhase
			cmd := m.newStatusMessage(tts.UserMessage(msg.err))
			if m.status.phase == phasePlaying {
				return tea.Batch(cmd, tickCmd())
			}
			return cmd
		}
		m.setError(msg.err)
		return nil
	}

	res := msg.result
	m.status.phase = phasePlaying
	m.status.position = 0
	m.status.duration = res.Buffer.Duration()
	m.status.peak = res.Buffer.Peak()
	m.status.cacheHit = res.CacheHit
	m.status.latency = res.Elapsed
	m.status.voice = res.Voice.Name
	m.sessionID = res.Session.ID()
	m.startedAt = time.Now()
	if m.cacheStats != nil {
		stats := m.cacheStats()
		m.status.cache = &stats
	}

	select {
	case <-res.Session.Done():
		// Already over, e.g. an empty buffer.
		m.status.phase = phaseIdle
		return nil
	default:
	}
	return tickCmd()
}

func (m *model) setError(err error) {
	log.Debug("Request failed", "error", err)
	m.status.phase = phaseError
	m.status.errMsg = tts.UserMessage(err)
}

func (m *model) newStatusMessage(s string) tea.Cmd {
	m.statusSeq++
	m.status.message = s
	return statusTimeoutCmd(m.statusSeq)
}

// layout sizes the text area to the remaining screen space.
func (m *model) layout() {
	if m.width == 0 {
		return
	}
	m.input.SetWidth(m.width - 2)

	// Title, progress, status bar, notice line.
	h := m.height - 4
	if m.showHelp {
		h -= lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp())) + 1
	}
	m.input.SetHeight(max(h, 3))
}

func (m model) View() string {
	var b strings.Builder

	title := titleStyle.Render("murmur")
	if m.status.phase == phaseLoading {
		title += " " + m.spinner.View()
	}
	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, m.input.View())

	if bar := m.status.progressBar(m.width); bar != "" {
		fmt.Fprintln(&b, bar)
	} else {
		fmt.Fprintln(&b, dimStyle.Render(strings.Repeat("─", max(m.width, 0))))
	}
	fmt.Fprintln(&b, m.status.render(m.width))
	b.WriteString(m.status.notice(m.width))

	if m.showHelp {
		b.WriteString("\n\n")
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return b.String()
}
