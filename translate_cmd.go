package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/speech"
	"github.com/alouette/alouette/translate"
)

var (
	translateProvider string
	translateModel    string
	translateTo       string
	translateFrom     string
	translateDiscover bool
	translateList     bool
	translateSpeak    bool

	translateCmd = &cobra.Command{
		Use:   "translate [TEXT]",
		Short: "Translate text with a local LLM server",
		Long: "Translate text through Ollama or LM Studio. Text comes from the\n" +
			"argument, or from stdin when the argument is \"-\" or absent and\n" +
			"stdin is a pipe.",
		Example: "  alouette translate \"hello world\" --to fr\n" +
			"  alouette translate --discover\n" +
			"  alouette translate \"bonjour\" --to en --speak -o bonjour.mp3",
		Args: cobra.MaximumNArgs(1),
		RunE: runTranslate,
	}
)

func init() {
	translateCmd.Flags().StringVarP(&translateProvider, "provider", "p", "", "provider: auto, ollama, lmstudio or mock")
	translateCmd.Flags().StringVarP(&translateModel, "model", "m", "", "model tag, overrides automatic picking")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "target language")
	translateCmd.Flags().StringVar(&translateFrom, "from", "", "source language, empty means auto-detect")
	translateCmd.Flags().BoolVar(&translateDiscover, "discover", false, "probe well-known local servers and report the winner")
	translateCmd.Flags().BoolVar(&translateList, "list-models", false, "list the active provider's models and exit")
	translateCmd.Flags().BoolVar(&translateSpeak, "speak", false, "synthesize the translation with the speech engine")
	translateCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "audio file for --speak, - for stdout")
}

// loadTranslateConfig layers flags over environment over the config file.
func loadTranslateConfig() (translate.Config, error) {
	cfg, err := translate.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if translateProvider != "" {
		cfg.Provider = translateProvider
	}
	if translateModel != "" {
		cfg.Model = translateModel
	}
	if translateTo != "" {
		cfg.TargetLanguage = translateTo
	}
	if translateFrom != "" {
		cfg.SourceLanguage = translateFrom
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := loadTranslateConfig()
	if err != nil {
		return err
	}

	tr, err := translate.New(cfg)
	if err != nil {
		return err
	}
	defer tr.Dispose() //nolint:errcheck

	ctx := cmd.Context()

	if translateDiscover {
		found, err := tr.Discover(ctx)
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("no translation server found at %s or %s", cfg.Ollama.URL, cfg.LMStudio.URL)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %s at %s with model %s (%d models total)\n",
			found.Endpoint.Backend, found.Endpoint.URL, found.Choice.Name, len(found.Options))
		if len(args) == 0 && !translateList {
			return nil
		}
	} else if err := tr.Initialize(ctx); err != nil {
		return fmt.Errorf("no translation provider available: %w", err)
	}

	if translateList {
		models, err := tr.Models(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "MODEL\n")
		for _, m := range models {
			fmt.Fprintf(tw, "%s\n", m.Name)
		}
		return tw.Flush()
	}

	text, err := textFromArgs(args)
	if err != nil {
		return err
	}

	translated, err := tr.Translate(ctx, text)
	if err != nil {
		return err
	}

	if !translateSpeak {
		fmt.Fprintln(cmd.OutOrStdout(), translated)
		return nil
	}

	// Pipeline mode: hand the translation to the speech engine.
	speakLanguage = cfg.TargetLanguage
	return speakText(cmd, translated)
}

// speakText synthesizes already-resolved text with the speech stack and the
// speak command's output flags.
func speakText(cmd *cobra.Command, text string) error {
	cfg, err := loadSpeechConfig()
	if err != nil {
		return err
	}

	synth, err := speech.New(cfg)
	if err != nil {
		return err
	}
	defer synth.Dispose() //nolint:errcheck

	ctx := cmd.Context()
	if err := synth.Initialize(ctx); err != nil {
		return fmt.Errorf("no speech engine available: %w", err)
	}
	result, err := synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	return writeAudio(cmd, synth, result)
}
