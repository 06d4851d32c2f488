package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName is used for config directories, the config file and env prefix.
const AppName = "murmur"

// LoadFromViper reads murmur configuration from v, falling back to the
// defaults for unset keys, and validates it.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("engine") {
		cfg.Engine = v.GetString("engine")
	}
	if v.IsSet("voice") {
		cfg.Voice = v.GetString("voice")
	}
	if v.IsSet("rate") {
		cfg.Rate = v.GetFloat64("rate")
	}
	if v.IsSet("pitch") {
		cfg.Pitch = v.GetInt("pitch")
	}
	if v.IsSet("volume") {
		cfg.Volume = v.GetFloat64("volume")
	}

	// Audio settings
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}
	if v.IsSet("audio.channels") {
		cfg.Audio.Channels = v.GetInt("audio.channels")
	}
	if v.IsSet("audio.backend") {
		cfg.Audio.Backend = v.GetString("audio.backend")
	}

	// Google settings
	if v.IsSet("google.api_key") {
		cfg.Google.APIKey = v.GetString("google.api_key")
	}
	if v.IsSet("google.credentials_file") {
		cfg.Google.CredentialsFile = ExpandPath(v.GetString("google.credentials_file"))
	}
	if v.IsSet("google.endpoint") {
		cfg.Google.Endpoint = v.GetString("google.endpoint")
	}
	if v.IsSet("google.timeout") {
		cfg.Google.Timeout = v.GetDuration("google.timeout")
	}
	if v.IsSet("google.requests_per_minute") {
		cfg.Google.RequestsPerMinute = v.GetInt("google.requests_per_minute")
	}

	// Mock settings
	if v.IsSet("mock.latency") {
		cfg.Mock.Latency = v.GetDuration("mock.latency")
	}
	if v.IsSet("mock.failure_rate") {
		cfg.Mock.FailureRate = v.GetFloat64("mock.failure_rate")
	}

	// Cache settings
	if v.IsSet("cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("cache.enabled")
	}
	if v.IsSet("cache.max_bytes") {
		cfg.Cache.MaxBytes = v.GetInt64("cache.max_bytes")
	}
	if v.IsSet("cache.compression_level") {
		cfg.Cache.CompressionLevel = v.GetInt("cache.compression_level")
	}
	if v.IsSet("cache.max_age") {
		cfg.Cache.MaxAge = v.GetDuration("cache.max_age")
	}

	// Metrics settings
	if v.IsSet("metrics.addr") {
		cfg.Metrics.Addr = v.GetString("metrics.addr")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in v and binds MURMUR_* variables, so
// MURMUR_GOOGLE_API_KEY sets google.api_key.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("engine", d.Engine)
	v.SetDefault("voice", d.Voice)
	v.SetDefault("rate", d.Rate)
	v.SetDefault("pitch", d.Pitch)
	v.SetDefault("volume", d.Volume)

	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.channels", d.Audio.Channels)
	v.SetDefault("audio.backend", d.Audio.Backend)

	v.SetDefault("google.api_key", d.Google.APIKey)
	v.SetDefault("google.credentials_file", d.Google.CredentialsFile)
	v.SetDefault("google.endpoint", d.Google.Endpoint)
	v.SetDefault("google.timeout", d.Google.Timeout.String())
	v.SetDefault("google.requests_per_minute", d.Google.RequestsPerMinute)

	v.SetDefault("mock.latency", d.Mock.Latency.String())
	v.SetDefault("mock.failure_rate", d.Mock.FailureRate)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.max_bytes", d.Cache.MaxBytes)
	v.SetDefault("cache.compression_level", d.Cache.CompressionLevel)
	v.SetDefault("cache.max_age", d.Cache.MaxAge.String())

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ConfigDirs returns the directories searched for murmur.yml, most specific
// first: $MURMUR_CONFIG_HOME, $XDG_CONFIG_HOME/murmur, then the platform's
// user config dirs.
func ConfigDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("MURMUR_CONFIG_HOME"); c != "" {
		dirs = append([]string{ExpandPath(c)}, dirs...)
	}

	return dirs, nil
}

// ReadInConfig points v at the config file (or searches dirs when file is
// empty) and reads it. A missing file is not an error. It returns the path
// of the file in use, or the path a new file should be created at.
func ReadInConfig(v *viper.Viper, file string, dirs []string) (string, error) {
	if file != "" {
		v.SetConfigFile(ExpandPath(file))
	} else {
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("could not parse configuration file: %w", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return used, nil
	}
	if file != "" {
		return ExpandPath(file), nil
	}
	if len(dirs) == 0 {
		return "", errors.New("no configuration directory")
	}
	return filepath.Join(dirs[0], AppName+".yml"), nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		f = ExpandPath(f)
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		log.Debug("Loaded environment file", "path", f)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return expanded
}

// Watch calls fn with the reloaded configuration whenever the config file
// behind v changes. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, fn func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := LoadFromViper(v)
		if err != nil {
			log.Warn("Ignoring invalid configuration change", "path", e.Name, "error", err)
			return
		}
		log.Info("Configuration reloaded", "path", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
}
