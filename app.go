package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/cache"
	"github.com/dgnsrekt/murmur/internal/config"
	"github.com/dgnsrekt/murmur/internal/metrics"
	"github.com/dgnsrekt/murmur/internal/pcm"
	"github.com/dgnsrekt/murmur/internal/tts"
	"github.com/dgnsrekt/murmur/internal/tts/engines"
)

// app holds the long-lived components built from a Config.
type app struct {
	speaker *tts.Speaker
	player  *audio.Player
	store   *cache.Store

	// stopMetrics shuts down the metrics endpoint, if one is running.
	stopMetrics context.CancelFunc
}

func newApp(cfg config.Config) (*app, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	format := pcm.Format{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		BitDepth:   pcm.BitDepth,
	}

	var factory audio.DeviceFactory = audio.NewOtoDevice
	if cfg.Audio.Backend == "mock" {
		factory = audio.NewMockDevice(true).Factory()
	}
	player := audio.NewPlayer(audio.Options{
		Factory: factory,
		Volume:  cfg.Volume,
	})

	a := &app{player: player}
	opts := []tts.SpeakerOption{tts.WithFormat(format)}
	if cfg.Cache.Enabled {
		store, err := cache.New(cfg.Cache.MaxBytes, cfg.Cache.CompressionLevel)
		if err != nil {
			_ = player.Close()
			return nil, fmt.Errorf("unable to create cache: %w", err)
		}
		store.PruneEvery(cfg.Cache.MaxAge)
		a.store = store
		opts = append(opts, tts.WithCache(store))
	}

	if cfg.Metrics.Addr != "" {
		m := metrics.NewMetrics()
		m.WatchCache(a.cacheStats)
		ctx, cancel := context.WithCancel(context.Background())
		if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
			cancel()
			_ = player.Close()
			return nil, err
		}
		a.stopMetrics = cancel
		opts = append(opts, tts.WithRecorder(m))
	}

	a.speaker = tts.NewSpeaker(engine, player, opts...)

	log.Debug("Initialized",
		"engine", engine.Name(),
		"backend", cfg.Audio.Backend,
		"sample_rate", format.SampleRate,
		"cache", cfg.Cache.Enabled)

	return a, nil
}

func newEngine(cfg config.Config) (tts.Synthesizer, error) {
	switch cfg.Engine {
	case "google":
		return engines.NewGoogle(engines.GoogleConfig{
			APIKey:            cfg.Google.APIKey,
			CredentialsFile:   cfg.Google.CredentialsFile,
			Endpoint:          cfg.Google.Endpoint,
			Timeout:           cfg.Google.Timeout,
			RequestsPerMinute: cfg.Google.RequestsPerMinute,
		})
	case "mock":
		return engines.NewMock(engines.MockConfig{
			Latency:     cfg.Mock.Latency,
			FailureRate: cfg.Mock.FailureRate,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// cacheStats returns the cache statistics, or zero stats without a cache.
func (a *app) cacheStats() cache.Stats {
	if a.store == nil {
		return cache.Stats{}
	}
	return a.store.Stats()
}

// clearCache empties the payload cache, if there is one.
func (a *app) clearCache() {
	if a.store != nil {
		a.store.Clear()
	}
}

// Close stops playback and releases the audio device.
func (a *app) Close() error {
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	errs := []error{a.speaker.Stop(), a.player.Close()}
	if a.store != nil {
		a.store.Close()
	}
	return errors.Join(errs...)
}
