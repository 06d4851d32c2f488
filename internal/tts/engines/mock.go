package engines

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/dgnsrekt/murmur/internal/tts"
)

const (
	// mockCharDuration is the play time generated per character at 100% rate.
	mockCharDuration = 60 * time.Millisecond
	mockMaxDuration  = 10 * time.Second
	mockBaseFreq     = 220.0
	mockAmplitude    = 0.25
)

var (
	rateAttr  = regexp.MustCompile(`rate="(\d+)%"`)
	pitchAttr = regexp.MustCompile(`pitch="([+-]?\d+)st"`)
	tags      = regexp.MustCompile(`<[^>]*>`)
)

// MockConfig holds configuration for the mock engine.
type MockConfig struct {
	// Latency is added before every response.
	Latency time.Duration

	// FailureRate is the probability (0.0 to 1.0) that a request fails.
	FailureRate float64
}

// Mock implements tts.Synthesizer without network access. It answers with a
// sine tone whose length follows the text and rate and whose frequency
// follows the pitch.
type Mock struct {
	latency     time.Duration
	failureRate float64

	mu    sync.Mutex
	calls int
	last  tts.SynthesisRequest

	// Test helpers
	Payload string // returned verbatim when set
	Err     error  // returned when set
}

// NewMock creates a mock engine.
func NewMock(config MockConfig) *Mock {
	return &Mock{
		latency:     config.Latency,
		failureRate: config.FailureRate,
	}
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Synthesize returns a base64 tone in req.Format.
func (m *Mock) Synthesize(ctx context.Context, req tts.SynthesisRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.last = req
	payload, injected := m.Payload, m.Err
	m.mu.Unlock()

	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return "", &tts.SynthesisError{Message: "request cancelled", Err: ctx.Err()}
		}
	}

	if injected != nil {
		return "", injected
	}
	if m.failureRate > 0 && rand.Float64() < m.failureRate {
		return "", &tts.SynthesisError{Status: 503, Message: "injected failure"}
	}
	if payload != "" {
		return payload, nil
	}

	return pcm.Encode(Tone(req.SSML, req.Format))
}

// Calls returns the number of Synthesize calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request.
func (m *Mock) LastRequest() tts.SynthesisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Tone renders the per-channel samples the mock engine answers with for an
// SSML document.
func Tone(ssml string, f pcm.Format) [][]float32 {
	rate := 1.0
	if m := rateAttr.FindStringSubmatch(ssml); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil && pct > 0 {
			rate = float64(pct) / 100
		}
	}
	pitch := 0
	if m := pitchAttr.FindStringSubmatch(ssml); m != nil {
		pitch, _ = strconv.Atoi(m[1])
	}

	chars := utf8.RuneCountInString(tags.ReplaceAllString(ssml, ""))
	d := time.Duration(float64(chars) * float64(mockCharDuration) / rate)
	if d > mockMaxDuration {
		d = mockMaxDuration
	}

	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	freq := mockBaseFreq * math.Pow(2, float64(pitch)/12)

	channels := max(f.Channels, 1)
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		s := float32(mockAmplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(f.SampleRate)))
		for c := range out {
			out[c][i] = s
		}
	}
	return out
}
