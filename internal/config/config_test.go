package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/murmur/internal/tts"
)

// TestDefaultConfig tests that default configuration is valid.
func TestDefaultConfig(t *testing.T) {
	t.Setenv("MURMUR_ENGINE", "google")

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	if cfg.Engine != "mock" {
		t.Errorf("Default engine should be mock regardless of environment, got %s", cfg.Engine)
	}
	if cfg.Voice != tts.DefaultVoice {
		t.Errorf("Default voice = %s, want %s", cfg.Voice, tts.DefaultVoice)
	}
	if cfg.Audio.SampleRate != 24000 || cfg.Audio.Channels != 1 {
		t.Errorf("Default audio = %+v", cfg.Audio)
	}
	if cfg.Mock.Latency != 150*time.Millisecond {
		t.Errorf("Default mock latency = %v", cfg.Mock.Latency)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxBytes != 32<<20 || cfg.Cache.MaxAge != time.Hour {
		t.Errorf("Default cache = %+v", cfg.Cache)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "engine is case insensitive",
			modify: func(c *Config) { c.Engine = "MOCK" },
		},
		{
			name:    "invalid engine",
			modify:  func(c *Config) { c.Engine = "espeak" },
			wantErr: true,
			errMsg:  "invalid engine",
		},
		{
			name:    "unknown voice",
			modify:  func(c *Config) { c.Voice = "en-US-Neural2-Z" },
			wantErr: true,
			errMsg:  "unknown voice",
		},
		{
			name:    "rate too low",
			modify:  func(c *Config) { c.Rate = 0.1 },
			wantErr: true,
			errMsg:  "rate must be between",
		},
		{
			name:    "pitch too high",
			modify:  func(c *Config) { c.Pitch = 21 },
			wantErr: true,
			errMsg:  "pitch must be between",
		},
		{
			name:    "volume too high",
			modify:  func(c *Config) { c.Volume = 1.5 },
			wantErr: true,
			errMsg:  "volume must be between",
		},
		{
			name:    "invalid sample rate",
			modify:  func(c *Config) { c.Audio.SampleRate = 12345 },
			wantErr: true,
			errMsg:  "invalid sample rate",
		},
		{
			name:    "invalid channels",
			modify:  func(c *Config) { c.Audio.Channels = 6 },
			wantErr: true,
			errMsg:  "channels must be 1 or 2",
		},
		{
			name:   "metrics addr",
			modify: func(c *Config) { c.Metrics.Addr = "127.0.0.1:9090" },
		},
		{
			name:    "invalid metrics addr",
			modify:  func(c *Config) { c.Metrics.Addr = "9090" },
			wantErr: true,
			errMsg:  "invalid addr",
		},
		{
			name:    "invalid backend",
			modify:  func(c *Config) { c.Audio.Backend = "alsa" },
			wantErr: true,
			errMsg:  "invalid backend",
		},
		{
			name: "google without key",
			modify: func(c *Config) {
				c.Engine = "google"
			},
			wantErr: true,
			errMsg:  "api_key or credentials_file is required",
		},
		{
			name: "google with credentials file",
			modify: func(c *Config) {
				c.Engine = "google"
				c.Google.CredentialsFile = "/etc/murmur/sa.json"
			},
		},
		{
			name: "google with key",
			modify: func(c *Config) {
				c.Engine = "google"
				c.Google.APIKey = "key"
			},
		},
		{
			name: "google needs mono",
			modify: func(c *Config) {
				c.Engine = "google"
				c.Google.APIKey = "key"
				c.Audio.Channels = 2
			},
			wantErr: true,
			errMsg:  "voices are mono",
		},
		{
			name:    "mock failure rate",
			modify:  func(c *Config) { c.Mock.FailureRate = 2 },
			wantErr: true,
			errMsg:  "failure_rate",
		},
		{
			name:    "cache too small",
			modify:  func(c *Config) { c.Cache.MaxBytes = 10 },
			wantErr: true,
			errMsg:  "max_bytes",
		},
		{
			name:    "negative cache max age",
			modify:  func(c *Config) { c.Cache.MaxAge = -time.Minute },
			wantErr: true,
			errMsg:  "max_age",
		},
		{
			name:   "cache max age disabled",
			modify: func(c *Config) { c.Cache.MaxAge = 0 },
		},
		{
			name: "disabled cache is not checked",
			modify: func(c *Config) {
				c.Cache.Enabled = false
				c.Cache.MaxBytes = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q does not contain %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateUnknownVoiceWraps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Voice = "nope"
	if err := cfg.Validate(); !errors.Is(err, tts.ErrUnknownVoice) {
		t.Errorf("expected ErrUnknownVoice, got %v", err)
	}
}
