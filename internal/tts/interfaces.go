package tts

import (
	"context"
	"time"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/pcm"
)

// SynthesisRequest is what an engine receives.
type SynthesisRequest struct {
	// ID identifies the request in logs and upstream headers.
	ID     string
	SSML   string
	Voice  Voice
	Format pcm.Format
}

// Synthesizer turns SSML into a base64 payload of 16-bit LE PCM in the
// requested format. Failures should be reported as *SynthesisError.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)
}

// Player is the playback side of the pipeline. *audio.Player satisfies it.
type Player interface {
	Play(buf *pcm.Buffer) (*audio.Session, error)
	Stop() error
}

// Cache stores payloads between requests. *cache.Store satisfies it.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, payload string) error
}

// Recorder receives the outcome of every Speak call. latency, audio and
// peak are zero unless outcome is "ok".
type Recorder interface {
	RecordSpeak(engine, outcome string, cacheHit bool, latency, audio time.Duration, peak float64)
}
