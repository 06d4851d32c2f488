package audio

import (
	"os"
	"testing"

	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/ebitengine/oto/v3"
)

var _ Source = (*oto.Player)(nil)

func TestNewOtoDeviceRejectsBadFormat(t *testing.T) {
	if _, err := NewOtoDevice(pcm.Format{SampleRate: 24000, Channels: 3, BitDepth: 16}); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
}

func TestOtoDevice(t *testing.T) {
	if os.Getenv("MURMUR_AUDIO_TESTS") == "" {
		t.Skip("Skipping test: set MURMUR_AUDIO_TESTS=1 to use the real audio device")
	}

	dev, err := NewOtoDevice(pcm.DefaultFormat())
	if err != nil {
		t.Skipf("Skipping test: cannot open audio device: %v", err)
	}

	p := NewPlayer(Options{Factory: func(pcm.Format) (Device, error) { return dev, nil }})
	defer p.Close()

	sess, err := p.Play(testBuffer(2400))
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	<-sess.Done()
}
