package pcm

import (
	"fmt"
	"time"
)

// Default audio format returned by the synthesis API.
const (
	// SampleRate is the upstream sample rate in Hz.
	SampleRate = 24000
	// Channels is the upstream channel count (mono).
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per single-channel sample.
	BytesPerSample = BitDepth / 8
)

// Format describes a raw PCM stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the format produced by the synthesis API.
func DefaultFormat() Format {
	return Format{
		SampleRate: SampleRate,
		Channels:   Channels,
		BitDepth:   BitDepth,
	}
}

// BytesPerFrame returns the number of bytes holding one sample per channel.
func (f Format) BytesPerFrame() int {
	return f.BitDepth / 8 * f.Channels
}

// Duration returns the play time of n bytes in this format.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.BytesPerFrame() <= 0 {
		return 0
	}
	frames := n / f.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Validate reports whether the format can be decoded.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	if f.BitDepth != BitDepth {
		return fmt.Errorf("bit depth must be %d, got %d", BitDepth, f.BitDepth)
	}
	return nil
}
