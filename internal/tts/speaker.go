package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/dgnsrekt/murmur/internal/ssml"
	"github.com/google/uuid"
)

// Request describes one utterance.
type Request struct {
	Text  string
	Voice string
	Rate  float64
	Pitch int

	// Markdown strips markdown formatting from Text before synthesis.
	Markdown bool
}

// Result describes a request whose audio has started playing.
type Result struct {
	RequestID string
	SSML      string
	Voice     Voice
	Buffer    *pcm.Buffer
	Session   *audio.Session
	CacheHit  bool
	Elapsed   time.Duration
}

// Speaker orchestrates synthesis, decoding and playback.
type Speaker struct {
	engine Synthesizer
	player Player
	cache    Cache
	recorder Recorder
	format   pcm.Format

	loading    atomic.Bool
	generation atomic.Uint64

	// mu orders the generation check in Speak against Stop.
	mu sync.Mutex
}

// SpeakerOption configures a Speaker.
type SpeakerOption func(*Speaker)

// WithCache enables payload caching.
func WithCache(c Cache) SpeakerOption {
	return func(s *Speaker) { s.cache = c }
}

// WithRecorder reports every Speak outcome to r.
func WithRecorder(r Recorder) SpeakerOption {
	return func(s *Speaker) { s.recorder = r }
}

// WithFormat sets the PCM format requested from the engine. Defaults to
// pcm.DefaultFormat().
func WithFormat(f pcm.Format) SpeakerOption {
	return func(s *Speaker) { s.format = f }
}

// NewSpeaker creates a speaker.
func NewSpeaker(engine Synthesizer, player Player, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		engine: engine,
		player: player,
		format: pcm.DefaultFormat(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Busy reports whether a request is loading.
func (s *Speaker) Busy() bool {
	return s.loading.Load()
}

// Speak synthesizes req and starts playing it, replacing whatever was
// playing. It returns once playback has started; wait on
// Result.Session.Done() for the end of the audio.
//
// While a request is loading, further calls fail with ErrBusy and have no
// other effect. If Stop is called before the audio is ready, the result is
// discarded with ErrSuperseded.
func (s *Speaker) Speak(ctx context.Context, req Request) (result *Result, err error) {
	if !s.loading.CompareAndSwap(false, true) {
		s.record(nil, ErrBusy)
		return nil, ErrBusy
	}
	defer s.loading.Store(false)
	defer func() { s.record(result, err) }()

	gen := s.generation.Add(1)
	start := time.Now()

	text := req.Text
	if req.Markdown {
		text = ssml.PlainText(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	voice, err := LookupVoice(req.Voice)
	if err != nil {
		return nil, err
	}

	prosody := ssml.Prosody{Rate: req.Rate, Pitch: req.Pitch}.Clamp()
	synthReq := SynthesisRequest{
		ID:     uuid.NewString(),
		SSML:   ssml.Build(text, prosody),
		Voice:  voice,
		Format: s.format,
	}

	log.Debug("Speak request",
		"id", synthReq.ID,
		"engine", s.engine.Name(),
		"voice", voice.Name,
		"rate", prosody.RateAttr(),
		"pitch", prosody.PitchAttr(),
		"chars", len(text))

	payload, hit, err := s.fetch(ctx, synthReq)
	if err != nil {
		log.Warn("Synthesis failed", "id", synthReq.ID, "error", err)
		return nil, err
	}

	buf, err := pcm.DecodeBuffer(payload, s.format)
	if err != nil {
		log.Warn("Audio decoding failed", "id", synthReq.ID, "error", err)
		return nil, err
	}
	if !hit {
		s.store(synthReq, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation.Load() != gen {
		log.Debug("Discarding stale result", "id", synthReq.ID)
		return nil, ErrSuperseded
	}

	sess, err := s.player.Play(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	result = &Result{
		RequestID: synthReq.ID,
		SSML:      synthReq.SSML,
		Voice:     voice,
		Buffer:    buf,
		Session:   sess,
		CacheHit:  hit,
		Elapsed:   time.Since(start),
	}

	log.Info("Speaking",
		"id", result.RequestID,
		"duration", buf.Duration(),
		"cached", hit,
		"latency", result.Elapsed)

	return result, nil
}

// record reports the outcome of one Speak call to the recorder, if any.
func (s *Speaker) record(res *Result, err error) {
	if s.recorder == nil {
		return
	}
	if res == nil {
		s.recorder.RecordSpeak(s.engine.Name(), Outcome(err), false, 0, 0, 0)
		return
	}
	s.recorder.RecordSpeak(s.engine.Name(), Outcome(nil), res.CacheHit,
		res.Elapsed, res.Buffer.Duration(), res.Buffer.Peak())
}

// fetch returns the payload for req, from the cache when possible.
func (s *Speaker) fetch(ctx context.Context, req SynthesisRequest) (string, bool, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(cache.Key(req.SSML, req.Voice.Name)); ok {
			return payload, true, nil
		}
	}

	payload, err := s.engine.Synthesize(ctx, req)
	if err != nil {
		return "", false, err
	}
	return payload, false, nil
}

// store caches a payload that decoded cleanly. Cache errors are non-fatal.
func (s *Speaker) store(req SynthesisRequest, payload string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(cache.Key(req.SSML, req.Voice.Name), payload); err != nil {
		log.Debug("Payload not cached", "id", req.ID, "error", err)
	}
}

// Stop halts playback and invalidates any request still loading.
func (s *Speaker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation.Add(1)
	return s.player.Stop()
}
