package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# synthesis engine: google or mock
engine: "mock"
# voice name, see 'murmur voices'
voice: "en-US-Neural2-C"
# speaking rate (0.25 to 1.5)
rate: 1.0
# pitch in semitones (-20 to 20)
pitch: 0
# playback volume (0.0 to 1.0)
volume: 1.0

audio:
  # must match what the engine returns
  sample_rate: 24000
  channels: 1
  # oto or mock (silent)
  backend: "oto"

google:
  # api_key: "your-api-key-here"
  # or a service account / authorized user JSON file
  # credentials_file: "~/.config/gcloud/application_default_credentials.json"
  endpoint: "https://texttospeech.googleapis.com"
  timeout: "30s"
  requests_per_minute: 60

# offline engine that answers with a tone
mock:
  latency: "150ms"
  failure_rate: 0.0

# in-memory cache of synthesized audio
cache:
  enabled: true
  max_bytes: 33554432
  compression_level: 3
  # entries older than this are dropped; "0s" keeps them
  max_age: "1h"

# Prometheus endpoint, e.g. "127.0.0.1:9090"; empty disables it
metrics:
  addr: ""
`

var configShow bool

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the murmur config file",
	Long:    paragraph(fmt.Sprintf("\n%s the murmur config file in $EDITOR. A file with the default settings is written first if none exists.", keyword("Edit"))),
	Example: paragraph("murmur config\nmurmur config --config path/to/config.yml\nmurmur config --show"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configShow {
			return showConfig(viper.GetViper(), cmd.OutOrStdout())
		}

		if err := ensureConfigFile(); err != nil {
			return err
		}

		edit, err := editor.Cmd("murmur", configFile)
		if err != nil {
			return fmt.Errorf("unable to open editor: %w", err)
		}
		edit.Stdin, edit.Stdout, edit.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := edit.Run(); err != nil {
			return fmt.Errorf("editor exited: %w", err)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Config file:", configFile)
		return nil
	},
}

// ensureConfigFile writes the default config to configFile unless a file
// is already there.
func ensureConfigFile() error {
	if configFile == "" {
		return errors.New("no configuration file path")
	}
	switch filepath.Ext(configFile) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("%q is not a yaml file: use .yaml or .yml", configFile)
	}

	_, err := os.Stat(configFile)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	log.Info("Created config file", "path", configFile)
	return nil
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "print the effective configuration instead of editing")
}

// showConfig writes the merged settings of v as yaml, with secrets masked.
func showConfig(v *viper.Viper, w io.Writer) error {
	settings := v.AllSettings()
	if g, ok := settings["google"].(map[string]any); ok {
		if key, _ := g["api_key"].(string); key != "" {
			g["api_key"] = "********"
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("unable to encode configuration: %w", err)
	}
	return enc.Close() //nolint:wrapcheck
}
