package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/ssml"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

type phase int

const (
	phaseIdle phase = iota
	phaseLoading
	phasePlaying
	phaseError
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "Idle"
	case phaseLoading:
		return "Loading"
	case phasePlaying:
		return "Playing"
	case phaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Background(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#353533"})
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

// statusDisplay holds what the status bar shows.
type statusDisplay struct {
	phase    phase
	engine   string
	voice    string
	prosody  ssml.Prosody
	position time.Duration
	duration time.Duration
	peak     float64
	cacheHit bool
	latency  time.Duration
	cache    *cache.Stats
	message  string
	errMsg   string
}

func (s *statusDisplay) icon() string {
	switch s.phase {
	case phaseLoading:
		return "⟳"
	case phasePlaying:
		return "▶"
	case phaseError:
		return "✗"
	default:
		return "■"
	}
}

func (s *statusDisplay) color() lipgloss.Color {
	switch s.phase {
	case phaseLoading:
		return lipgloss.Color("#00AAFF") // Blue
	case phasePlaying:
		return lipgloss.Color("#00FF00") // Green
	case phaseError:
		return lipgloss.Color("#FF0000") // Red
	default:
		return lipgloss.Color("#888888") // Gray
	}
}

// compact returns the left-hand status segments.
func (s *statusDisplay) compact() []string {
	state := lipgloss.NewStyle().Foreground(s.color()).
		Render(fmt.Sprintf("%s %s", s.icon(), s.phase))

	parts := []string{
		state,
		s.voice,
		fmt.Sprintf("rate %s", s.prosody.RateAttr()),
		fmt.Sprintf("pitch %s", s.prosody.PitchAttr()),
	}

	if s.phase == phasePlaying && s.duration > 0 {
		parts = append(parts, fmt.Sprintf("%s / %s",
			formatDuration(s.position), formatDuration(s.duration)))
	}
	return parts
}

// details returns the right-hand status segments.
func (s *statusDisplay) details() []string {
	var parts []string
	if s.phase == phasePlaying && s.peak > 0 {
		parts = append(parts, fmt.Sprintf("peak %.2f", s.peak))
	}
	if s.latency > 0 {
		src := s.engine
		if s.cacheHit {
			src = "cache"
		}
		parts = append(parts, fmt.Sprintf("%s %s", src, s.latency.Round(time.Millisecond)))
	}
	if s.cache != nil && s.cache.ItemCount > 0 {
		parts = append(parts, fmt.Sprintf("%d cached · %s",
			s.cache.ItemCount, humanize.Bytes(uint64(s.cache.Size)))) //nolint:gosec
	}
	return parts
}

// render draws the status bar at the given width.
func (s *statusDisplay) render(width int) string {
	if width <= 0 {
		return ""
	}

	left := " " + strings.Join(s.compact(), " │ ")
	right := strings.Join(s.details(), " │ ")
	if right != "" {
		right += " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = width - lipgloss.Width(left)
	}
	bar := left
	if gap > 0 {
		bar += strings.Repeat(" ", gap) + right
	}
	bar = truncate.StringWithTail(bar, uint(width), "…") //nolint:gosec
	return statusBarStyle.Width(width).Render(bar)
}

// notice renders the line below the status bar: an error if there is one,
// otherwise the transient status message.
func (s *statusDisplay) notice(width int) string {
	switch {
	case s.errMsg != "":
		return errorStyle.Render(runewidth.Truncate(s.errMsg, max(width, 1), "…"))
	case s.message != "":
		return noteStyle.Render(runewidth.Truncate(s.message, max(width, 1), "…"))
	default:
		return ""
	}
}

// progressBar returns a playback progress bar, or "" when nothing is playing.
func (s *statusDisplay) progressBar(width int) string {
	if s.phase != phasePlaying || s.duration <= 0 || width < 10 {
		return ""
	}

	progress := float64(s.position) / float64(s.duration)
	filledWidth := int(progress * float64(width))
	if filledWidth > width {
		filledWidth = width
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	filledStyle := lipgloss.NewStyle().Foreground(s.color())
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	return filledStyle.Render(filled) + emptyStyle.Render(empty)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
