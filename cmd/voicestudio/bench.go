package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		profileID    string
		runs         int
		format       string
		rtfThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark synthesis latency and realtime factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			lib, err := loadLibrary(cfg)
			if err != nil {
				return err
			}
			profile, err := resolveProfile(lib, profileID)
			if err != nil {
				return err
			}
			synthesizer, err := newSynthesizer(cfg.Synth)
			if err != nil {
				return err
			}

			results, err := bench.Run(cmd.Context(), synthesizer, text, profile, bench.Options{Runs: runs})
			if err != nil {
				return mapSynthError(err)
			}
			stats := bench.Summarize(results)

			if format == "json" {
				if err := bench.FormatJSON(results, stats, cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckRTFThreshold(stats.MeanRTF, rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Script to synthesize on every run")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id (defaults to the first profile)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of synthesis requests")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Fail when mean RTF exceeds this value (0 disables)")

	return cmd
}
