package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Decode performs standard, padded base64 decoding of an audio payload.
// Surrounding whitespace and embedded line breaks are ignored.
func Decode(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, &DecodeError{Offset: int64(corrupt), Err: err}
		}
		return nil, &DecodeError{Offset: -1, Err: err}
	}
	return data, nil
}

// ToBuffer reinterprets data as signed 16-bit little-endian samples,
// interleaved by channel, and splits them into normalized per-channel arrays.
//
// A trailing partial frame is dropped: 5 mono-16 samples on 2 channels yield
// 2 frames.
func ToBuffer(data []byte, sampleRate, channels int) (*Buffer, error) {
	if channels < 1 {
		return nil, &FramingError{Length: len(data), Channels: channels}
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if len(data)%BytesPerSample != 0 {
		return nil, &FramingError{Length: len(data), Channels: channels}
	}

	samples := len(data) / BytesPerSample
	frames := samples / channels

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * BytesPerSample
			raw := int16(binary.LittleEndian.Uint16(data[off:]))
			out[c][i] = float32(raw) / 32768.0
		}
	}

	return &Buffer{data: out, sampleRate: sampleRate}, nil
}

// DecodeBuffer decodes a base64 payload straight into a Buffer.
func DecodeBuffer(payload string, f Format) (*Buffer, error) {
	data, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return ToBuffer(data, f.SampleRate, f.Channels)
}

// Encode quantizes per-channel samples to interleaved 16-bit little-endian
// PCM and returns it base64 encoded. All channels must have the same length.
func Encode(channels [][]float32) (string, error) {
	data, err := interleave16(channels)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func interleave16(channels [][]float32) ([]byte, error) {
	if len(channels) == 0 {
		return []byte{}, nil
	}

	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d frames, expected %d", ErrChannelMismatch, c, len(ch), frames)
		}
	}

	out := make([]byte, frames*len(channels)*BytesPerSample)
	off := 0
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			binary.LittleEndian.PutUint16(out[off:], uint16(quantize(ch[i])))
			off += BytesPerSample
		}
	}
	return out, nil
}

// quantize maps a unit-range sample back onto the int16 range, clamping
// anything outside [-1, 1).
func quantize(s float32) int16 {
	v := math.Round(float64(s) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
