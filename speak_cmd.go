package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/caarlos0/env/v11"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/speech"
)

var (
	speakEngine   string
	speakVoice    string
	speakLanguage string
	speakRate     float64
	speakPitch    float64
	speakVolume   float64
	speakOutput   string
	speakList     bool

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Synthesize text to speech",
		Long: "Synthesize text with the best available engine. Text comes from\n" +
			"the argument, or from stdin when the argument is \"-\" or absent\n" +
			"and stdin is a pipe.",
		Example: "  alouette speak \"hello world\" -o hello.mp3\n" +
			"  echo \"hello\" | alouette speak -o hello.mp3\n" +
			"  alouette speak --list-voices",
		Args: cobra.MaximumNArgs(1),
		RunE: runSpeak,
	}
)

func init() {
	speakCmd.Flags().StringVarP(&speakEngine, "engine", "e", "", "engine: auto, edge, native or mock")
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "voice name, overrides language based selection")
	speakCmd.Flags().StringVarP(&speakLanguage, "language", "l", "", "voice selection locale, e.g. en-US")
	speakCmd.Flags().Float64Var(&speakRate, "rate", 0, "speech rate multiplier, 1.0 is neutral")
	speakCmd.Flags().Float64Var(&speakPitch, "pitch", 0, "pitch multiplier, 1.0 is neutral")
	speakCmd.Flags().Float64Var(&speakVolume, "volume", 0, "volume multiplier, 1.0 is neutral")
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "write audio to file, - for stdout")
	speakCmd.Flags().BoolVar(&speakList, "list-voices", false, "list the active engine's voices and exit")
}

// loadSpeechConfig layers flags over environment over the config file.
func loadSpeechConfig() (speech.Config, error) {
	cfg, err := speech.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if speakEngine != "" {
		cfg.Engine = speakEngine
	}
	if speakVoice != "" {
		cfg.Voice = speakVoice
	}
	if speakLanguage != "" {
		cfg.Language = speakLanguage
	}
	if speakRate != 0 {
		cfg.Rate = speakRate
	}
	if speakPitch != 0 {
		cfg.Pitch = speakPitch
	}
	if speakVolume != 0 {
		cfg.Volume = speakVolume
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
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

	if speakList {
		return printVoices(ctx, cmd.OutOrStdout(), synth)
	}

	text, err := textFromArgs(args)
	if err != nil {
		return err
	}

	result, err := synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	return writeAudio(cmd, synth, result)
}

// writeAudio writes the synthesized audio per the --output flag: a named
// file, stdout for "-", or a default filename.
func writeAudio(cmd *cobra.Command, synth *speech.Synthesizer, result *backend.Result) error {
	if speakOutput == "-" {
		if _, err := os.Stdout.Write(result.Audio); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		return nil
	}

	name := speakOutput
	if name == "" {
		name = "alouette-output"
		if result.Format != "" {
			name += "." + result.Format
		}
	}
	if err := os.WriteFile(name, result.Audio, 0o644); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s of %s audio to %s (engine: %s)\n",
		humanize.Bytes(uint64(len(result.Audio))), formatName(result.Format), name, synth.ActiveBackend())
	return nil
}

func printVoices(ctx context.Context, w io.Writer, synth *speech.Synthesizer) error {
	voices, err := synth.Voices(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tLOCALE\tQUALITY\tGENDER\n")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Locale, v.Quality, v.Gender)
	}
	return tw.Flush()
}

// textFromArgs resolves the input text from the argument or stdin.
func textFromArgs(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("inspecting stdin: %w", err)
	}
	isPipe := stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0
	if len(args) == 0 && !isPipe {
		return "", fmt.Errorf("no text given: pass an argument or pipe to stdin")
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func formatName(format string) string {
	if format == "" {
		return "cached"
	}
	return format
}
