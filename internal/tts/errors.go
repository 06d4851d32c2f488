package tts

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

var (
	// ErrSynthesis is matched by every *SynthesisError.
	ErrSynthesis = errors.New("text synthesis failed")

	// ErrPlayback wraps failures to start the audio output.
	ErrPlayback = errors.New("playback failed")

	// ErrBusy is returned when a request is made while another is loading.
	ErrBusy = errors.New("a synthesis request is already in flight")

	// ErrSuperseded is returned when Stop or a newer request overtook a
	// request before its audio could start.
	ErrSuperseded = errors.New("request superseded before playback")

	// ErrEmptyText indicates there is nothing to speak.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrUnknownVoice indicates a voice outside the catalogue.
	ErrUnknownVoice = errors.New("unknown voice")
)

// SynthesisError reports a failed upstream synthesis call.
type SynthesisError struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSynthesis, e.detail())
}

func (e *SynthesisError) detail() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}
	if e.Status != 0 {
		return fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSynthesis) hold.
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesis
}

// UnknownVoiceError names a voice that is not in the catalogue along with
// the closest matches.
type UnknownVoiceError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownVoiceError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("%s %q", ErrUnknownVoice, e.Name)
	}
	return fmt.Sprintf("%s %q (did you mean %s?)", ErrUnknownVoice, e.Name, e.Suggestions[0])
}

// Is makes errors.Is(err, ErrUnknownVoice) hold.
func (e *UnknownVoiceError) Is(target error) bool {
	return target == ErrUnknownVoice
}

// UserMessage renders err as a single line for the user. The prefix tells
// synthesis failures apart from audio decoding problems.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		synthErr *SynthesisError
		decErr   *pcm.DecodeError
		frameErr *pcm.FramingError
	)

	switch {
	case errors.As(err, &synthErr):
		return "Synthesis failed: " + synthErr.detail()
	case errors.As(err, &decErr):
		return "Could not decode audio: " + decErr.Error()
	case errors.As(err, &frameErr):
		return "Malformed audio: " + frameErr.Error()
	case errors.Is(err, ErrPlayback), errors.Is(err, audio.ErrFormatMismatch), errors.Is(err, audio.ErrPlayerClosed):
		return "Playback failed: " + err.Error()
	case errors.Is(err, ErrBusy):
		return "Still loading the previous request"
	case errors.Is(err, ErrSuperseded):
		return "Stopped"
	default:
		return err.Error()
	}
}

// Outcome classifies err for metrics: "ok", "busy", "superseded",
// "invalid", "synthesis_error", "decode_error", "framing_error",
// "playback_error" or "error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, ErrEmptyText), errors.Is(err, ErrUnknownVoice):
		return "invalid"
	case errors.Is(err, ErrSynthesis):
		return "synthesis_error"
	case errors.Is(err, pcm.ErrDecode):
		return "decode_error"
	case errors.Is(err, pcm.ErrFraming):
		return "framing_error"
	case errors.Is(err, ErrPlayback), errors.Is(err, audio.ErrFormatMismatch), errors.Is(err, audio.ErrPlayerClosed):
		return "playback_error"
	default:
		return "error"
	}
}
