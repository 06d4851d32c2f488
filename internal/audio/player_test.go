package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/murmur/internal/pcm"
)

func newTestPlayer(t *testing.T) (*Player, *MockDevice) {
	t.Helper()
	dev := NewMockDevice(false)
	p := NewPlayer(Options{
		Factory:      dev.Factory(),
		PollInterval: time.Millisecond,
	})
	t.Cleanup(func() { _ = p.Close() })
	return p, dev
}

func testBuffer(frames int) *pcm.Buffer {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}
	return pcm.NewBuffer([][]float32{samples}, pcm.SampleRate)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session %d did not end", s.ID())
	}
}

func TestPlayerInitialState(t *testing.T) {
	p, dev := newTestPlayer(t)

	if p.State() != StateIdle {
		t.Errorf("expected idle, got %s", p.State())
	}
	if p.Session() != nil {
		t.Error("expected no session")
	}
	if dev.Opens != 0 {
		t.Errorf("device should open lazily, got %d opens", dev.Opens)
	}
}

func TestPlayerPlay(t *testing.T) {
	p, dev := newTestPlayer(t)
	buf := testBuffer(240)

	sess, err := p.Play(buf)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if p.State() != StatePlaying {
		t.Errorf("expected playing, got %s", p.State())
	}
	if p.Session() != sess {
		t.Error("live session does not match returned session")
	}
	if dev.Opens != 1 {
		t.Errorf("expected device opened once, got %d", dev.Opens)
	}
	if got := dev.Format(); got.SampleRate != pcm.SampleRate || got.Channels != 1 {
		t.Errorf("device opened with %+v", got)
	}

	sources := dev.Sources()
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if want, _ := buf.PCM16(); string(sources[0].Data()) != string(want) {
		t.Error("source was not fed the buffer's PCM")
	}
	if !sources[0].IsPlaying() {
		t.Error("source should be playing")
	}
}

func TestPlayerPlayNilBuffer(t *testing.T) {
	p, _ := newTestPlayer(t)
	if _, err := p.Play(nil); !errors.Is(err, ErrNoBuffer) {
		t.Fatalf("expected ErrNoBuffer, got %v", err)
	}
	if p.State() != StateIdle {
		t.Errorf("expected idle, got %s", p.State())
	}
}

func TestPlayerPlayUnevenChannels(t *testing.T) {
	p, dev := newTestPlayer(t)

	first, err := p.Play(testBuffer(2400))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	uneven := pcm.NewBuffer([][]float32{make([]float32, 10), make([]float32, 9)}, pcm.SampleRate)
	if _, err := p.Play(uneven); !errors.Is(err, pcm.ErrChannelMismatch) {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}

	// The rejected buffer leaves the live session alone.
	if p.Session() != first || p.State() != StatePlaying {
		t.Errorf("live session replaced by rejected buffer, state %s", p.State())
	}
	if n := len(dev.Sources()); n != 1 {
		t.Errorf("expected 1 source, got %d", n)
	}
}

func TestPlayerStopIdempotent(t *testing.T) {
	p, dev := newTestPlayer(t)

	sess, err := p.Play(testBuffer(240))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.Stop(); err != nil {
			t.Fatalf("Stop #%d failed: %v", i+1, err)
		}
		if p.State() != StateIdle {
			t.Errorf("after Stop #%d expected idle, got %s", i+1, p.State())
		}
		if p.Session() != nil {
			t.Errorf("after Stop #%d session not cleared", i+1)
		}
	}

	waitDone(t, sess)
	if sess.Reason() != ReasonStopped {
		t.Errorf("expected reason stopped, got %s", sess.Reason())
	}
	if !dev.Sources()[0].IsClosed() {
		t.Error("source not released on stop")
	}
}

func TestPlayerStopWhenIdle(t *testing.T) {
	p, dev := newTestPlayer(t)
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop on idle player failed: %v", err)
	}
	if dev.Opens != 0 {
		t.Error("Stop should not open the device")
	}
}

func TestPlayerReplaceKeepsOneSession(t *testing.T) {
	p, dev := newTestPlayer(t)

	first, err := p.Play(testBuffer(240))
	if err != nil {
		t.Fatalf("first Play failed: %v", err)
	}
	second, err := p.Play(testBuffer(480))
	if err != nil {
		t.Fatalf("second Play failed: %v", err)
	}

	select {
	case <-first.Done():
	default:
		t.Fatal("first session should be released before Play returns")
	}
	if first.Reason() != ReasonReplaced {
		t.Errorf("expected reason replaced, got %s", first.Reason())
	}

	if p.Session() != second {
		t.Error("second session should be live")
	}
	if n := dev.ActiveSources(); n != 1 {
		t.Errorf("expected exactly one active source, got %d", n)
	}
	if dev.Opens != 1 {
		t.Errorf("device should be reused, got %d opens", dev.Opens)
	}
	if second.ID() <= first.ID() {
		t.Errorf("session ids should increase: %d then %d", first.ID(), second.ID())
	}
}

func TestPlayerConcurrentPlay(t *testing.T) {
	p, dev := newTestPlayer(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Play(testBuffer(240)); err != nil {
				t.Errorf("Play failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := dev.ActiveSources(); n != 1 {
		t.Errorf("expected exactly one active source, got %d", n)
	}
	if p.State() != StatePlaying {
		t.Errorf("expected playing, got %s", p.State())
	}
}

func TestPlayerNaturalCompletion(t *testing.T) {
	finished := make(chan *Session, 1)
	dev := NewMockDevice(false)
	p := NewPlayer(Options{
		Factory:      dev.Factory(),
		PollInterval: time.Millisecond,
		OnFinish:     func(s *Session) { finished <- s },
	})
	defer p.Close()

	sess, err := p.Play(testBuffer(240))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	dev.Sources()[0].Finish()
	waitDone(t, sess)

	select {
	case got := <-finished:
		if got != sess {
			t.Error("OnFinish received the wrong session")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnFinish was not called")
	}

	if p.State() != StateIdle {
		t.Errorf("expected idle after completion, got %s", p.State())
	}
	if p.Session() != nil {
		t.Error("session not cleared after completion")
	}
	if sess.Reason() != ReasonFinished {
		t.Errorf("expected reason finished, got %s", sess.Reason())
	}
}

func TestPlayerStaleCompletionIgnored(t *testing.T) {
	var calls int
	var mu sync.Mutex
	dev := NewMockDevice(false)
	p := NewPlayer(Options{
		Factory:      dev.Factory(),
		PollInterval: time.Millisecond,
		OnFinish: func(*Session) {
			mu.Lock()
			calls++
			mu.Unlock()
		},
	})
	defer p.Close()

	first, _ := p.Play(testBuffer(240))
	second, _ := p.Play(testBuffer(240))

	// A finish from the replaced source must not touch the live session.
	p.finish(first)

	if p.Session() != second {
		t.Fatal("stale completion cleared the live session")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("OnFinish called %d times for a replaced session", calls)
	}
}

func TestPlayerRealtimeDevice(t *testing.T) {
	dev := NewMockDevice(true)
	p := NewPlayer(Options{Factory: dev.Factory(), PollInterval: time.Millisecond})
	defer p.Close()

	// 240 frames at 24kHz is 10ms.
	sess, err := p.Play(testBuffer(240))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitDone(t, sess)

	if sess.Reason() != ReasonFinished {
		t.Errorf("expected reason finished, got %s", sess.Reason())
	}
}

func TestPlayerEmptyBufferFinishes(t *testing.T) {
	dev := NewMockDevice(true)
	p := NewPlayer(Options{Factory: dev.Factory(), PollInterval: time.Millisecond})
	defer p.Close()

	sess, err := p.Play(pcm.NewBuffer([][]float32{{}}, pcm.SampleRate))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitDone(t, sess)
	if p.State() != StateIdle {
		t.Errorf("expected idle, got %s", p.State())
	}
}

func TestPlayerFormatMismatch(t *testing.T) {
	p, _ := newTestPlayer(t)

	if _, err := p.Play(testBuffer(240)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	stereo := pcm.NewBuffer([][]float32{make([]float32, 10), make([]float32, 10)}, pcm.SampleRate)
	_, err := p.Play(stereo)
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
	if p.State() != StateIdle {
		t.Errorf("failed Play should leave the player idle, got %s", p.State())
	}
}

func TestPlayerDeviceOpenFailure(t *testing.T) {
	dev := NewMockDevice(false)
	dev.FailOpen = errors.New("no audio hardware")
	p := NewPlayer(Options{Factory: dev.Factory()})
	defer p.Close()

	if _, err := p.Play(testBuffer(10)); err == nil {
		t.Fatal("expected device open error")
	}
	if p.State() != StateIdle {
		t.Errorf("expected idle, got %s", p.State())
	}

	// The device is retried on the next Play.
	dev.FailOpen = nil
	if _, err := p.Play(testBuffer(10)); err != nil {
		t.Fatalf("Play after recovery failed: %v", err)
	}
}

func TestPlayerVolume(t *testing.T) {
	p, dev := newTestPlayer(t)

	if p.Volume() != 1.0 {
		t.Errorf("expected default volume 1.0, got %f", p.Volume())
	}
	if _, err := p.Play(testBuffer(10)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	tests := []struct {
		volume    float64
		expectErr bool
	}{
		{0.0, false},
		{0.5, false},
		{1.0, false},
		{-0.1, true},
		{1.1, true},
	}
	for _, tt := range tests {
		err := p.SetVolume(tt.volume)
		if tt.expectErr {
			if err == nil {
				t.Errorf("SetVolume(%f) expected error", tt.volume)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetVolume(%f) unexpected error: %v", tt.volume, err)
		}
		if got := dev.Sources()[0].Volume(); got != tt.volume {
			t.Errorf("live source volume %f, want %f", got, tt.volume)
		}
	}
}

func TestPlayerClose(t *testing.T) {
	dev := NewMockDevice(false)
	p := NewPlayer(Options{Factory: dev.Factory()})

	sess, err := p.Play(testBuffer(10))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	waitDone(t, sess)

	if !dev.IsClosed() {
		t.Error("device not closed")
	}
	if _, err := p.Play(testBuffer(10)); !errors.Is(err, ErrPlayerClosed) {
		t.Errorf("expected ErrPlayerClosed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
