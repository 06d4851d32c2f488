package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

var (
	// ErrPlayerClosed is returned by Play after Close.
	ErrPlayerClosed = errors.New("player is closed")

	// ErrNoBuffer is returned when Play is called without audio.
	ErrNoBuffer = errors.New("no audio buffer to play")

	// ErrFormatMismatch is returned when a buffer does not match the format
	// the output device was opened with.
	ErrFormatMismatch = errors.New("buffer format does not match audio device")
)

// DefaultPollInterval is how often a live session checks for end of buffer.
const DefaultPollInterval = 20 * time.Millisecond

// State is the playback state of a Player.
type State int32

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StatePlaying means exactly one session is producing sound.
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Options configures a Player.
type Options struct {
	// Factory opens the output device on first Play. Defaults to NewOtoDevice.
	Factory DeviceFactory

	// PollInterval controls end-of-buffer detection.
	PollInterval time.Duration

	// Volume is the initial volume (0.0 to 1.0). Zero means full volume.
	Volume float64

	// OnFinish is called, outside the player lock, when a session reaches the
	// end of its buffer without being stopped or replaced.
	OnFinish func(*Session)
}

// Player owns the output device and at most one active Session.
type Player struct {
	mu sync.Mutex

	factory  DeviceFactory
	device   Device
	session  *Session
	state    State
	closed   bool
	nextID   uint64
	volume   float64
	poll     time.Duration
	onFinish func(*Session)
}

// NewPlayer creates an idle player. The device is not opened until the first
// call to Play.
func NewPlayer(opts Options) *Player {
	if opts.Factory == nil {
		opts.Factory = NewOtoDevice
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Volume <= 0 || opts.Volume > 1 {
		opts.Volume = 1.0
	}

	return &Player{
		factory:  opts.Factory,
		state:    StateIdle,
		volume:   opts.Volume,
		poll:     opts.PollInterval,
		onFinish: opts.OnFinish,
	}
}

// Play stops any live session, then starts playing buf in a new one.
func (p *Player) Play(buf *pcm.Buffer) (*Session, error) {
	if buf == nil {
		return nil, ErrNoBuffer
	}
	data, err := buf.PCM16()
	if err != nil {
		return nil, fmt.Errorf("invalid buffer: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPlayerClosed
	}

	// The previous source is fully released before the new one exists.
	if prev := p.stopLocked(ReasonReplaced); prev != nil {
		log.Debug("Replaced playback session", "session", prev.id)
	}

	device, err := p.deviceLocked(buf.Format())
	if err != nil {
		return nil, err
	}

	p.nextID++
	src := device.NewSource(bytes.NewReader(data))
	src.SetVolume(p.volume)

	sess := newSession(p.nextID, buf, src)
	p.session = sess
	p.state = StatePlaying
	src.Play()

	go p.watch(sess)

	log.Debug("Playback started",
		"session", sess.id,
		"frames", buf.Frames(),
		"duration", buf.Duration())

	return sess, nil
}

// Stop halts the live session, if any. Calling Stop while idle does nothing.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.stopLocked(ReasonStopped); s != nil {
		log.Debug("Playback stopped", "session", s.id)
	}
	return nil
}

// stopLocked releases the live session and returns it, or nil when idle.
func (p *Player) stopLocked(reason Reason) *Session {
	s := p.session
	if s == nil {
		return nil
	}

	s.release(reason)
	p.session = nil
	p.state = StateIdle
	return s
}

// deviceLocked opens the device once and checks later buffers against it.
func (p *Player) deviceLocked(f pcm.Format) (Device, error) {
	if p.device != nil {
		if df := p.device.Format(); df.SampleRate != f.SampleRate || df.Channels != f.Channels {
			return nil, fmt.Errorf("%w: device %dHz/%dch, buffer %dHz/%dch",
				ErrFormatMismatch, df.SampleRate, df.Channels, f.SampleRate, f.Channels)
		}
		return p.device, nil
	}

	device, err := p.factory(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	p.device = device
	return device, nil
}

// watch waits for the session's source to run dry.
func (p *Player) watch(s *Session) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.source.IsPlaying() {
				continue
			}
			p.finish(s)
			return
		}
	}
}

// finish moves to idle if s is still the live session.
func (p *Player) finish(s *Session) {
	p.mu.Lock()
	if p.session != s {
		p.mu.Unlock()
		return
	}
	s.release(ReasonFinished)
	p.session = nil
	p.state = StateIdle
	hook := p.onFinish
	p.mu.Unlock()

	log.Debug("Playback finished", "session", s.id)

	if hook != nil {
		hook(s)
	}
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsPlaying reports whether a session is live.
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// Session returns the live session, or nil when idle.
func (p *Player) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// SetOnFinish replaces the natural-completion hook.
func (p *Player) SetOnFinish(fn func(*Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFinish = fn
}

// SetVolume sets the playback volume (0.0 to 1.0) for the live and future
// sessions.
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = volume
	if p.session != nil {
		p.session.source.SetVolume(volume)
	}
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Close stops playback and releases the device. The player cannot be reused.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.stopLocked(ReasonStopped)
	p.closed = true

	if p.device != nil {
		if err := p.device.Close(); err != nil {
			return fmt.Errorf("failed to close audio device: %w", err)
		}
	}
	return nil
}
