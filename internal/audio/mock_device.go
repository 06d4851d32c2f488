package audio

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

// MockDevice implements Device without producing sound. It is used by tests
// and by the "mock" audio backend on machines without an output device.
type MockDevice struct {
	mu      sync.Mutex
	format  pcm.Format
	sources []*MockSource
	closed  bool

	// Realtime makes sources finish on their own after the buffer's play time.
	Realtime bool

	// FailOpen makes Factory return this error instead of the device.
	FailOpen error

	// Test helpers
	Opens          int
	SourcesCreated int
}

// NewMockDevice creates a mock device. Sources only finish when Finish is
// called unless realtime is set.
func NewMockDevice(realtime bool) *MockDevice {
	return &MockDevice{Realtime: realtime}
}

// Factory returns a DeviceFactory that opens this device.
func (d *MockDevice) Factory() DeviceFactory {
	return func(f pcm.Format) (Device, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.FailOpen != nil {
			return nil, d.FailOpen
		}
		d.format = f
		d.closed = false
		d.Opens++
		log.Debug("Opened mock audio device", "sample_rate", f.SampleRate, "channels", f.Channels)
		return d, nil
	}
}

// NewSource consumes r and returns a source that plays it.
func (d *MockDevice) NewSource(r io.Reader) Source {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Warn("Mock device could not read audio", "error", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	src := &MockSource{
		data:     data,
		volume:   1.0,
		duration: d.format.Duration(len(data)),
		realtime: d.Realtime,
	}
	d.sources = append(d.sources, src)
	d.SourcesCreated++
	return src
}

// Format returns the format passed to the factory.
func (d *MockDevice) Format() pcm.Format {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format
}

// Close marks the device closed.
func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("mock device already closed")
	}
	d.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (d *MockDevice) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Sources returns every source created so far.
func (d *MockDevice) Sources() []*MockSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockSource, len(d.sources))
	copy(out, d.sources)
	return out
}

// ActiveSources counts sources that are playing and not closed.
func (d *MockDevice) ActiveSources() int {
	n := 0
	for _, s := range d.Sources() {
		if s.IsPlaying() && !s.IsClosed() {
			n++
		}
	}
	return n
}

// MockSource implements Source for MockDevice.
type MockSource struct {
	mu       sync.Mutex
	data     []byte
	playing  bool
	finished bool
	closed   bool
	volume   float64
	duration time.Duration
	realtime bool
	timer    *time.Timer
}

// Play starts or resumes the source. A finished source stays finished.
func (s *MockSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.closed {
		return
	}
	s.playing = true

	if s.realtime && s.timer == nil {
		s.timer = time.AfterFunc(s.duration, s.Finish)
	}
}

// Pause halts the source.
func (s *MockSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// IsPlaying reports whether the source is producing sound.
func (s *MockSource) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SetVolume records the volume.
func (s *MockSource) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

// Volume returns the last volume set.
func (s *MockSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close releases the source.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.playing = false
	if s.timer != nil {
		s.timer.Stop()
	}
	return nil
}

// IsClosed reports whether Close was called.
func (s *MockSource) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Finish simulates the source reaching the end of its data.
func (s *MockSource) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	s.playing = false
}

// Data returns the PCM bytes the source was created with.
func (s *MockSource) Data() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}
