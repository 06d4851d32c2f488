package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSpeak(t *testing.T) {
	m := NewMetrics()

	m.RecordSpeak("mock", "ok", false, 120*time.Millisecond, 2*time.Second, 0.25)
	m.RecordSpeak("mock", "ok", true, 5*time.Millisecond, time.Second, 0.5)
	m.RecordSpeak("mock", "busy", false, 0, 0, 0)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"ok requests", testutil.ToFloat64(m.Requests.WithLabelValues("mock", "ok")), 2},
		{"busy requests", testutil.ToFloat64(m.Requests.WithLabelValues("mock", "busy")), 1},
		{"cache hits", testutil.ToFloat64(m.CacheHits), 1},
		{"audio seconds", testutil.ToFloat64(m.AudioSeconds), 3},
		{"last peak", testutil.ToFloat64(m.LastPayloadPeak), 0.5},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.RequestDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestWatchCache(t *testing.T) {
	m := NewMetrics()
	m.WatchCache(func() cache.Stats {
		return cache.Stats{ItemCount: 3, Size: 4096, Evictions: 1}
	})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"murmur_cache_items 3", "murmur_cache_bytes 4096", "murmur_cache_evictions 1"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestServe(t *testing.T) {
	// Pick a free port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	m := NewMetrics()
	m.RecordSpeak("mock", "ok", false, time.Millisecond, time.Second, 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Serve(ctx, addr); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `murmur_speak_requests_total{engine="mock",outcome="ok"} 1`) {
		t.Errorf("unexpected body:\n%s", body)
	}

	if err := m.Serve(ctx, addr); err == nil {
		t.Error("expected error for an address in use")
	}
}
