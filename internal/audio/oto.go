package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/ebitengine/oto/v3"
)

// readyTimeout bounds how long we wait for the platform audio backend.
const readyTimeout = 5 * time.Second

type otoDevice struct {
	context *oto.Context
	format  pcm.Format
}

// NewOtoDevice opens the system audio output through oto. oto allows a single
// context per process, so callers must open it at most once.
func NewOtoDevice(f pcm.Format) (Device, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device format: %w", err)
	}

	options := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	log.Debug("Opening audio device",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount)

	ctx, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-readyChan:
	case <-time.After(readyTimeout):
		return nil, fmt.Errorf("audio context initialization timeout after %v", readyTimeout)
	}

	log.Info("Audio device ready", "sample_rate", f.SampleRate, "channels", f.Channels)

	return &otoDevice{context: ctx, format: f}, nil
}

func (d *otoDevice) NewSource(r io.Reader) Source {
	return d.context.NewPlayer(r)
}

func (d *otoDevice) Format() pcm.Format {
	return d.format
}

// Close suspends the context. oto/v3 contexts cannot be destroyed.
func (d *otoDevice) Close() error {
	return d.context.Suspend()
}
