package pcm

import (
	"math"
	"time"
)

// Buffer holds decoded audio, one sample slice per channel. Samples are in
// [-1.0, 1.0].
type Buffer struct {
	data       [][]float32
	sampleRate int
}

// NewBuffer wraps existing per-channel samples. The slices are not copied.
func NewBuffer(channels [][]float32, sampleRate int) *Buffer {
	return &Buffer{data: channels, sampleRate: sampleRate}
}

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Channels returns the number of channels.
func (b *Buffer) Channels() int {
	return len(b.data)
}

// Frames returns the number of frames (samples per channel).
func (b *Buffer) Frames() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

// Channel returns the samples of channel c.
func (b *Buffer) Channel(c int) []float32 {
	return b.data[c]
}

// Duration returns the play time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.sampleRate)
}

// Format returns the 16-bit format matching this buffer.
func (b *Buffer) Format() Format {
	return Format{SampleRate: b.sampleRate, Channels: b.Channels(), BitDepth: BitDepth}
}

// PCM16 re-interleaves the buffer into signed 16-bit little-endian bytes,
// the layout the output device consumes. It fails with ErrChannelMismatch
// when the channels have different lengths.
func (b *Buffer) PCM16() ([]byte, error) {
	return interleave16(b.data)
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, ch := range b.data {
		for _, s := range ch {
			peak = math.Max(peak, math.Abs(float64(s)))
		}
	}
	return peak
}
