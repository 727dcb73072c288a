package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alouette/alouette/speech"
	"github.com/alouette/alouette/translate"
)

const defaultConfig = `# Speech synthesis configuration
tts:
  # engine: auto, edge, native or mock
  engine: "auto"
  # fall back to the next engine when the chosen one fails to start
  auto_fallback: true
  # pin a voice by exact name; empty picks by language
  voice: ""
  language: "en-US"
  prefer_neural: true
  # prosody multipliers, 1.0 is neutral
  rate: 1.0
  pitch: 1.0
  volume: 1.0

  cache:
    enabled: true
    # empty means ~/.cache/alouette/audio
    dir: ""
    max_bytes: 67108864

  edge:
    binary: "edge-tts"
    synthesis_timeout: "30s"
    requests_per_minute: 60

  native:
    # empty uses the platform default (say, espeak-ng, powershell)
    binary: ""
    timeout: "20s"
    # calibrates the platform voice against the neutral 1.0 rate
    rate_scale: 1.0

# Translation configuration
translate:
  # provider: auto, ollama, lmstudio or mock
  provider: "auto"
  auto_fallback: true
  # pin a model tag; empty picks from the server's list
  model: ""
  target_language: "en"
  # empty means auto-detect
  source_language: ""

  ollama:
    url: "http://localhost:11434"
    timeout: "120s"
  lmstudio:
    url: "http://localhost:1234/v1"
    timeout: "120s"
`

var (
	configShow bool

	configCmd = &cobra.Command{
		Use:     "config",
		Short:   "Edit the alouette config file",
		Long:    "Edit the alouette config file with EDITOR, creating it from the\ndefaults when it does not exist yet.",
		Example: "  alouette config\n  alouette config --show\n  alouette config --config path/to/config.yml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configShow {
				return showEffectiveConfig(cmd)
			}

			if err := ensureConfigFile(); err != nil {
				return err
			}

			c, err := editor.Cmd("alouette", configFile)
			if err != nil {
				return fmt.Errorf("unable to set config file: %w", err)
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("unable to run command: %w", err)
			}

			fmt.Println("Wrote config file to:", configFile)
			return nil
		},
	}
)

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "print the effective configuration and exit")
}

// showEffectiveConfig prints the merged configuration after defaults, file
// and environment are applied.
func showEffectiveConfig(cmd *cobra.Command) error {
	speechCfg, err := speech.LoadConfigFromViper()
	if err != nil {
		return err
	}
	translateCfg, err := translate.LoadConfigFromViper()
	if err != nil {
		return err
	}

	merged := struct {
		TTS       speech.Config    `yaml:"tts"`
		Translate translate.Config `yaml:"translate"`
	}{speechCfg, translateCfg}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
