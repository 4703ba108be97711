package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/audio"
	"github.com/example/voicestudio/internal/studio"
	"github.com/example/voicestudio/internal/text"
)

func newExportCmd() *cobra.Command {
	var out string
	var selection string
	var format string
	var resample bool

	cmd := &cobra.Command{
		Use:   "export <audio-file>",
		Short: "Convert an audio file to a WAV take, optionally trimmed to a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			exportFormat, err := studio.NormalizeFormat(format)
			if err != nil {
				return err
			}

			target := 0
			if resample {
				target = cfg.Audio.SampleRate
			}
			buf, err := loadInput(cfg, args[0], target)
			if err != nil {
				return err
			}

			label := studio.LabelOriginal
			sel, err := parseRange(selection, buf.Duration())
			if err != nil {
				return err
			}
			if sel != nil {
				if buf, err = audio.Slice(buf, sel.Start, sel.End); err != nil {
					return err
				}
				label = studio.LabelTrimmed
			}

			data, err := audio.EncodeWAV(buf)
			if err != nil {
				return err
			}

			if out == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				out = filepath.Join(cfg.Paths.OutputDir, text.ExportFilename(base, label, exportFormat))
			}
			if err := writeOutput(out, data, cmd.OutOrStdout()); err != nil {
				return err
			}
			if out != "-" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path ('-' for stdout; default: <output-dir>/<name>_<take>.<format>)")
	cmd.Flags().StringVar(&selection, "select", "", "Keep only start:end seconds")
	cmd.Flags().StringVar(&format, "format", studio.FormatWAV, "Export format label (wav|mp3|ogg); the payload is WAV")
	cmd.Flags().BoolVar(&resample, "resample", false, "Resample to --audio-sample-rate before export")

	return cmd
}
