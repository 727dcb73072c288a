package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alouette/alouette/backend"
	"github.com/alouette/alouette/speech"
	"github.com/alouette/alouette/translate"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Probe every speech engine and translation provider",
	Long: "Probe each supported backend on this platform and report whether\n" +
		"it is available right now, with diagnostics for the ones that are\n" +
		"not.",
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func runBackends(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "KIND\tBACKEND\tAVAILABLE\tDETAILS\n")

	speechCfg, err := loadSpeechConfig()
	if err != nil {
		return err
	}
	synth, err := speech.New(speechCfg)
	if err != nil {
		return err
	}
	defer synth.Dispose() //nolint:errcheck
	for _, r := range synth.AvailableBackends(ctx) {
		fmt.Fprintf(tw, "speech\t%s\t%v\t%s\n", r.Backend, r.Available, diagSummary(r))
	}

	translateCfg, err := loadTranslateConfig()
	if err != nil {
		return err
	}
	tr, err := translate.New(translateCfg)
	if err != nil {
		return err
	}
	defer tr.Dispose() //nolint:errcheck
	for _, r := range tr.AvailableBackends(ctx) {
		fmt.Fprintf(tw, "translate\t%s\t%v\t%s\n", r.Backend, r.Available, diagSummary(r))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if speechCfg.Cache.Enabled {
		stats := synth.CacheStats()
		fmt.Fprintf(out, "\nAudio cache: %d entries, %s on disk\n",
			stats.Entries, humanize.Bytes(uint64(stats.Bytes)))
	}
	return nil
}

// diagSummary flattens a probe's diagnostics into one stable line.
func diagSummary(r backend.ProbeResult) string {
	if r.Available {
		return "ok"
	}
	if !r.Supported {
		return "not supported on this platform"
	}
	if reason, ok := r.Diagnostics["reason"]; ok {
		return reason
	}

	keys := make([]string, 0, len(r.Diagnostics))
	for k := range r.Diagnostics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.Diagnostics[k])
	}
	return strings.Join(parts, " ")
}
