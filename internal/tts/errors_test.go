package tts

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

func TestSynthesisError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *SynthesisError
		want string
	}{
		{
			name: "status and message",
			err:  &SynthesisError{Status: 403, Message: "PERMISSION_DENIED: API key not valid."},
			want: "text synthesis failed: status 403: PERMISSION_DENIED: API key not valid.",
		},
		{
			name: "transport failure",
			err:  &SynthesisError{Message: "request failed", Err: cause},
			want: "text synthesis failed: request failed: connection refused",
		},
		{
			name: "cause only",
			err:  &SynthesisError{Err: cause},
			want: "text synthesis failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrSynthesis) {
				t.Error("errors.Is(err, ErrSynthesis) = false")
			}
		})
	}

	wrapped := fmt.Errorf("speak: %w", &SynthesisError{Err: cause})
	if !errors.Is(wrapped, cause) {
		t.Error("SynthesisError does not unwrap to its cause")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		prefix string
	}{
		{"nil", nil, ""},
		{"synthesis", &SynthesisError{Status: 500, Message: "internal"}, "Synthesis failed: status 500: internal"},
		{"decode", &pcm.DecodeError{Offset: 2}, "Could not decode audio: "},
		{"framing", &pcm.FramingError{Length: 3, Channels: 1}, "Malformed audio: "},
		{"playback", fmt.Errorf("%w: %w", ErrPlayback, audio.ErrFormatMismatch), "Playback failed: "},
		{"player closed", audio.ErrPlayerClosed, "Playback failed: "},
		{"busy", ErrBusy, "Still loading"},
		{"superseded", ErrSuperseded, "Stopped"},
		{"other", ErrEmptyText, "text cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("UserMessage() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestUserMessage_DistinguishesCategories(t *testing.T) {
	msgs := map[string]bool{}
	for _, err := range []error{
		&SynthesisError{Message: "x"},
		&pcm.DecodeError{Offset: 0},
		&pcm.FramingError{Length: 1, Channels: 1},
	} {
		prefix := strings.SplitN(UserMessage(err), ":", 2)[0]
		if msgs[prefix] {
			t.Errorf("prefix %q used by more than one category", prefix)
		}
		msgs[prefix] = true
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrBusy, "busy"},
		{ErrSuperseded, "superseded"},
		{ErrEmptyText, "invalid"},
		{&UnknownVoiceError{Name: "x"}, "invalid"},
		{&SynthesisError{Status: 500}, "synthesis_error"},
		{&pcm.DecodeError{Offset: 1}, "decode_error"},
		{&pcm.FramingError{Length: 3, Channels: 1}, "framing_error"},
		{fmt.Errorf("%w: %w", ErrPlayback, audio.ErrFormatMismatch), "playback_error"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
