package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/ssml"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{1500 * time.Millisecond, "0:01"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusRender(t *testing.T) {
	s := statusDisplay{
		phase:    phasePlaying,
		engine:   "google",
		voice:    "en-US-Neural2-C",
		prosody:  ssml.Prosody{Rate: 0.7, Pitch: -3},
		position: 2 * time.Second,
		duration: 5 * time.Second,
		peak:     0.25,
		latency:  420 * time.Millisecond,
		cache:    &cache.Stats{ItemCount: 2, Size: 2048},
	}

	out := s.render(120)
	for _, want := range []string{"Playing", "en-US-Neural2-C", "rate 70%", "pitch -3st", "0:02 / 0:05", "peak 0.25", "google 420ms", "2 cached"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
	if w := lipgloss.Width(out); w != 120 {
		t.Errorf("width = %d, want 120", w)
	}

	t.Run("cache hit", func(t *testing.T) {
		s := s
		s.cacheHit = true
		if out := s.render(120); !strings.Contains(out, "cache 420ms") {
			t.Errorf("status bar = %q", out)
		}
	})

	t.Run("narrow", func(t *testing.T) {
		if w := lipgloss.Width(s.render(20)); w > 20 {
			t.Errorf("width = %d, want <= 20", w)
		}
	})

	t.Run("zero width", func(t *testing.T) {
		if out := s.render(0); out != "" {
			t.Errorf("render(0) = %q", out)
		}
	})
}

func TestStatusNotice(t *testing.T) {
	s := statusDisplay{message: "Voice: en-GB-Neural2-A"}
	if got := s.notice(80); !strings.Contains(got, "Voice: en-GB-Neural2-A") {
		t.Errorf("notice = %q", got)
	}

	s.errMsg = "Synthesis failed: status 403: PERMISSION_DENIED"
	if got := s.notice(80); !strings.Contains(got, "Synthesis failed") {
		t.Errorf("notice = %q", got)
	}
	if got := s.notice(10); lipgloss.Width(got) > 10 {
		t.Errorf("notice not truncated: %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	s := statusDisplay{phase: phasePlaying, position: time.Second, duration: 4 * time.Second}

	bar := s.progressBar(40)
	if got := strings.Count(bar, "█"); got != 10 {
		t.Errorf("filled = %d, want 10", got)
	}
	if got := strings.Count(bar, "░"); got != 30 {
		t.Errorf("empty = %d, want 30", got)
	}

	s.phase = phaseIdle
	if bar := s.progressBar(40); bar != "" {
		t.Errorf("idle progress bar = %q", bar)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    phase
		want string
	}{
		{phaseIdle, "Idle"},
		{phaseLoading, "Loading"},
		{phasePlaying, "Playing"},
		{phaseError, "Error"},
		{phase(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}
