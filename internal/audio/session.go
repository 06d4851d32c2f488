package audio

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

// Reason records why a session ended.
type Reason int

const (
	// ReasonNone means the session is still live.
	ReasonNone Reason = iota
	// ReasonFinished means playback reached the end of the buffer.
	ReasonFinished
	// ReasonStopped means Stop or Close was called.
	ReasonStopped
	// ReasonReplaced means a newer Play superseded the session.
	ReasonReplaced
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonFinished:
		return "finished"
	case ReasonStopped:
		return "stopped"
	case ReasonReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Session is one sound source bound to one decoded buffer.
type Session struct {
	id      uint64
	buffer  *pcm.Buffer
	source  Source
	started time.Time

	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	reason Reason
}

func newSession(id uint64, buf *pcm.Buffer, src Source) *Session {
	return &Session{
		id:      id,
		buffer:  buf,
		source:  src,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns the session's sequence number within its Player.
func (s *Session) ID() uint64 {
	return s.id
}

// Buffer returns the buffer being played.
func (s *Session) Buffer() *pcm.Buffer {
	return s.buffer
}

// Done is closed once the session has ended for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Reason returns why the session ended, or ReasonNone while it is live.
func (s *Session) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Elapsed returns the wall time since playback started, capped at the buffer
// duration.
func (s *Session) Elapsed() time.Duration {
	elapsed := time.Since(s.started)
	if d := s.buffer.Duration(); elapsed > d {
		return d
	}
	return elapsed
}

// release halts the source and closes Done. Only the first call has effect.
func (s *Session) release(reason Reason) {
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()

		s.source.Pause()
		if err := s.source.Close(); err != nil {
			log.Debug("Closing sound source failed", "session", s.id, "error", err)
		}
		close(s.done)
	})
}
