package pcm

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("invalid base64 audio payload")

	// ErrFraming is matched by every *FramingError.
	ErrFraming = errors.New("audio payload not aligned to sample frames")

	// ErrChannelMismatch is returned for channels of different lengths.
	ErrChannelMismatch = errors.New("channels have different lengths")
)

// DecodeError reports a payload that is not valid standard base64.
type DecodeError struct {
	// Offset is the byte offset of the first invalid input, or -1 if unknown.
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: illegal data at input byte %d", ErrDecode, e.Offset)
	}
	return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDecode) hold.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// FramingError reports a byte sequence that cannot be split into 16-bit
// samples, or a channel count that cannot hold frames at all.
type FramingError struct {
	Length   int
	Channels int
}

func (e *FramingError) Error() string {
	if e.Channels < 1 {
		return fmt.Sprintf("%s: invalid channel count %d", ErrFraming, e.Channels)
	}
	return fmt.Sprintf("%s: %d bytes is not a whole number of %d-bit samples", ErrFraming, e.Length, BitDepth)
}

// Is makes errors.Is(err, ErrFraming) hold.
func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}
