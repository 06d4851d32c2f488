package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for murmur.
type Metrics struct {
	registry *prometheus.Registry

	// Speak requests
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	AudioSeconds    prometheus.Counter
	LastPayloadPeak prometheus.Gauge
}

// NewMetrics creates all metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_speak_requests_total",
			Help: "Total number of speak requests by engine and outcome",
		}, []string{"engine", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "murmur_speak_duration_seconds",
			Help:    "Time from request to start of playback",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"engine"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "murmur_cache_hits_total",
			Help: "Total number of requests served from the payload cache",
		}),
		AudioSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "murmur_audio_seconds_total",
			Help: "Total seconds of audio started",
		}),
		LastPayloadPeak: factory.NewGauge(prometheus.GaugeOpts{
			Name: "murmur_last_peak",
			Help: "Peak absolute sample of the most recent buffer",
		}),
	}
}

// RecordSpeak implements tts.Recorder.
func (m *Metrics) RecordSpeak(engine, outcome string, cacheHit bool, latency, audio time.Duration, peak float64) {
	m.Requests.WithLabelValues(engine, outcome).Inc()
	if outcome != "ok" {
		return
	}
	m.RequestDuration.WithLabelValues(engine).Observe(latency.Seconds())
	m.AudioSeconds.Add(audio.Seconds())
	m.LastPayloadPeak.Set(peak)
	if cacheHit {
		m.CacheHits.Inc()
	}
}

// WatchCache exports the cache statistics returned by stats as gauges.
func (m *Metrics) WatchCache(stats func() cache.Stats) {
	factory := promauto.With(m.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "murmur_cache_items",
		Help: "Current number of cached payloads",
	}, func() float64 { return float64(stats().ItemCount) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "murmur_cache_bytes",
		Help: "Current compressed size of the payload cache",
	}, func() float64 { return float64(stats().Size) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "murmur_cache_evictions",
		Help: "Payloads evicted from the cache",
	}, func() float64 { return float64(stats().Evictions) })
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", "addr", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}
