package audio

import (
	"io"

	"github.com/dgnsrekt/murmur/internal/pcm"
)

// Device is an opened audio output. Only one Device should exist per process.
type Device interface {
	// NewSource creates a sound source that plays 16-bit LE PCM read from r.
	NewSource(r io.Reader) Source

	// Format returns the format the device was opened with.
	Format() pcm.Format

	// Close releases the device.
	Close() error
}

// Source is a single sound source bound to one PCM stream.
// *oto.Player satisfies this interface.
type Source interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// DeviceFactory opens a Device for the given format.
type DeviceFactory func(f pcm.Format) (Device, error)
