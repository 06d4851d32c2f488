// Package config holds murmur's settings and loads them from the config
// file, the environment and flags.
package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dgnsrekt/murmur/internal/ssml"
	"github.com/dgnsrekt/murmur/internal/tts"
)

// Engines lists the accepted values of Config.Engine.
var Engines = []string{"google", "mock"}

// Backends lists the accepted values of AudioConfig.Backend.
var Backends = []string{"oto", "mock"}

// Config contains all murmur configuration options. Defaults live in the
// envDefault tags; the env tags name the variables viper binds.
type Config struct {
	Engine string  `yaml:"engine" env:"MURMUR_ENGINE" envDefault:"mock"`
	Voice  string  `yaml:"voice" env:"MURMUR_VOICE" envDefault:"en-US-Neural2-C"`
	Rate   float64 `yaml:"rate" env:"MURMUR_RATE" envDefault:"1.0"`
	Pitch  int     `yaml:"pitch" env:"MURMUR_PITCH" envDefault:"0"`
	Volume float64 `yaml:"volume" env:"MURMUR_VOLUME" envDefault:"1.0"`

	Audio   AudioConfig   `yaml:"audio"`
	Google  GoogleConfig  `yaml:"google"`
	Mock    MockConfig    `yaml:"mock"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AudioConfig describes the output device.
type AudioConfig struct {
	SampleRate int    `yaml:"sample_rate" env:"MURMUR_AUDIO_SAMPLE_RATE" envDefault:"24000"`
	Channels   int    `yaml:"channels" env:"MURMUR_AUDIO_CHANNELS" envDefault:"1"`
	Backend    string `yaml:"backend" env:"MURMUR_AUDIO_BACKEND" envDefault:"oto"`
}

// GoogleConfig contains Google engine settings.
type GoogleConfig struct {
	APIKey            string        `yaml:"api_key" env:"MURMUR_GOOGLE_API_KEY"`
	CredentialsFile   string        `yaml:"credentials_file" env:"MURMUR_GOOGLE_CREDENTIALS_FILE"`
	Endpoint          string        `yaml:"endpoint" env:"MURMUR_GOOGLE_ENDPOINT" envDefault:"https://texttospeech.googleapis.com"`
	Timeout           time.Duration `yaml:"timeout" env:"MURMUR_GOOGLE_TIMEOUT" envDefault:"30s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"MURMUR_GOOGLE_REQUESTS_PER_MINUTE" envDefault:"60"`
}

// MockConfig contains mock engine settings.
type MockConfig struct {
	Latency     time.Duration `yaml:"latency" env:"MURMUR_MOCK_LATENCY" envDefault:"150ms"`
	FailureRate float64       `yaml:"failure_rate" env:"MURMUR_MOCK_FAILURE_RATE" envDefault:"0.0"`
}

// CacheConfig contains payload cache settings.
type CacheConfig struct {
	Enabled          bool  `yaml:"enabled" env:"MURMUR_CACHE_ENABLED" envDefault:"true"`
	MaxBytes         int64 `yaml:"max_bytes" env:"MURMUR_CACHE_MAX_BYTES" envDefault:"33554432"`
	CompressionLevel int   `yaml:"compression_level" env:"MURMUR_CACHE_COMPRESSION_LEVEL" envDefault:"3"`

	// MaxAge drops entries older than this; zero keeps them until evicted.
	MaxAge time.Duration `yaml:"max_age" env:"MURMUR_CACHE_MAX_AGE" envDefault:"1h"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `yaml:"addr" env:"MURMUR_METRICS_ADDR"`
}

// DefaultConfig returns a Config with the tag defaults applied. The process
// environment is not consulted.
func DefaultConfig() Config {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	if err != nil {
		// Only reachable if a tag default fails to parse.
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid and normalizes case.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(c.Engine)
	if !slices.Contains(Engines, c.Engine) {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, Engines)
	}

	if _, err := tts.LookupVoice(c.Voice); err != nil {
		return fmt.Errorf("voice: %w", err)
	}

	if c.Rate < ssml.MinRate || c.Rate > ssml.MaxRate {
		return fmt.Errorf("rate must be between %.2f and %.2f, got %.2f", ssml.MinRate, ssml.MaxRate, c.Rate)
	}
	if c.Pitch < ssml.MinPitch || c.Pitch > ssml.MaxPitch {
		return fmt.Errorf("pitch must be between %d and %d, got %d", ssml.MinPitch, ssml.MaxPitch, c.Pitch)
	}
	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", c.Volume)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	switch c.Engine {
	case "google":
		if err := c.Google.Validate(); err != nil {
			return fmt.Errorf("google config: %w", err)
		}
		if c.Audio.Channels != 1 {
			return fmt.Errorf("google config: voices are mono, audio.channels must be 1")
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	return nil
}

// Validate checks if the audio configuration is valid.
func (c *AudioConfig) Validate() error {
	validSampleRates := []int{8000, 16000, 22050, 24000, 32000, 44100, 48000}
	if !slices.Contains(validSampleRates, c.SampleRate) {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	c.Backend = strings.ToLower(c.Backend)
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("invalid backend '%s': must be one of %v", c.Backend, Backends)
	}
	return nil
}

// Validate checks if the Google configuration is valid.
func (c *GoogleConfig) Validate() error {
	if c.APIKey == "" && c.CredentialsFile == "" {
		return fmt.Errorf("api_key or credentials_file is required (set MURMUR_GOOGLE_API_KEY)")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute)
	}
	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.Latency < 0 {
		return fmt.Errorf("latency cannot be negative, got %v", c.Latency)
	}
	if c.FailureRate < 0.0 || c.FailureRate > 1.0 {
		return fmt.Errorf("failure_rate must be between 0.0 and 1.0, got %f", c.FailureRate)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxBytes < 1024 {
		return fmt.Errorf("max_bytes must be at least 1024, got %d", c.MaxBytes)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("compression_level must be between 0 and 22, got %d", c.CompressionLevel)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative, got %v", c.MaxAge)
	}
	return nil
}

// Validate checks if the metrics configuration is valid.
func (c *MetricsConfig) Validate() error {
	if c.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid addr '%s': %w", c.Addr, err)
	}
	return nil
}
