package engines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/dgnsrekt/murmur/internal/tts"
)

func TestMock_Synthesize(t *testing.T) {
	m := NewMock(MockConfig{})
	req := testRequest(t)

	payload, err := m.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	buf, err := pcm.DecodeBuffer(payload, req.Format)
	if err != nil {
		t.Fatalf("mock payload does not decode: %v", err)
	}

	// "Hello" at 70% is 5 * 60ms / 0.7.
	want := 5 * 60 * time.Millisecond * 10 / 7
	if d := buf.Duration(); d < want-time.Millisecond || d > want+time.Millisecond {
		t.Errorf("Duration = %v, want about %v", d, want)
	}
	if peak := buf.Peak(); peak < 0.2 || peak > 0.26 {
		t.Errorf("Peak = %f, want about %f", peak, mockAmplitude)
	}

	if m.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", m.Calls())
	}
	if m.LastRequest().ID != req.ID {
		t.Errorf("LastRequest not recorded")
	}
}

func TestTone(t *testing.T) {
	f := pcm.Format{SampleRate: 8000, Channels: 2, BitDepth: 16}

	normal := Tone(`<speak><prosody rate="100%" pitch="+0st">abcd</prosody></speak>`, f)
	if len(normal) != 2 {
		t.Fatalf("channels = %d, want 2", len(normal))
	}
	if len(normal[0]) != 4*480 {
		t.Errorf("frames = %d, want %d", len(normal[0]), 4*480)
	}

	fast := Tone(`<speak><prosody rate="150%" pitch="+0st">abcd</prosody></speak>`, f)
	if len(fast[0]) >= len(normal[0]) {
		t.Error("faster rate should produce a shorter tone")
	}

	empty := Tone(`<speak><prosody rate="100%" pitch="+0st"></prosody></speak>`, f)
	if len(empty[0]) != 0 {
		t.Errorf("empty text produced %d frames", len(empty[0]))
	}
}

func TestMock_FailureInjection(t *testing.T) {
	m := NewMock(MockConfig{FailureRate: 1})

	_, err := m.Synthesize(context.Background(), testRequest(t))
	var se *tts.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected *tts.SynthesisError, got %v", err)
	}
	if se.Status != 503 {
		t.Errorf("Status = %d, want 503", se.Status)
	}
}

func TestMock_Latency(t *testing.T) {
	m := NewMock(MockConfig{Latency: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Synthesize(ctx, testRequest(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not cut the latency short")
	}
}

func TestMock_Overrides(t *testing.T) {
	m := NewMock(MockConfig{})
	m.Payload = "AEAAwA=="

	payload, err := m.Synthesize(context.Background(), testRequest(t))
	if err != nil || payload != "AEAAwA==" {
		t.Errorf("Payload override: got %q, %v", payload, err)
	}

	m.Err = errors.New("boom")
	if _, err := m.Synthesize(context.Background(), testRequest(t)); err == nil || err.Error() != "boom" {
		t.Errorf("Err override: got %v", err)
	}
}
