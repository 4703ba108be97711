package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/studio"
	"github.com/example/voicestudio/internal/synth"
)

const (
	modeGenerate   = "generate"
	modeVariations = "variations"
	modeHighPitch  = "high-pitch"
)

func newSynthCmd() *cobra.Command {
	var text string
	var profileID string
	var mode string
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a script with a voice profile and save the takes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			lib, err := loadLibrary(cfg)
			if err != nil {
				return err
			}
			profile, err := resolveProfile(lib, profileID)
			if err != nil {
				return err
			}
			script, err := readSynthText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}
			synthesizer, err := newSynthesizer(cfg.Synth)
			if err != nil {
				return err
			}

			paths, err := runSynth(cmd, cfg, synthOptions{
				Synth:   synthesizer,
				Profile: profile,
				Script:  script,
				Mode:    mode,
				Format:  format,
				Out:     out,
			})
			if err != nil {
				return mapSynthError(err)
			}

			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Script to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&profileID, "profile", "", "Voice profile id (default: first profile in the manifest)")
	cmd.Flags().StringVar(&mode, "mode", modeGenerate, "Generation mode (generate|variations|high-pitch)")
	cmd.Flags().StringVar(&format, "format", studio.FormatWAV, "Export format label (wav|mp3|ogg)")
	cmd.Flags().StringVar(&out, "out", "", "Output path for a single take ('-' for stdout; default: <output-dir>/<profile>_<take>.<format>)")

	return cmd
}

type synthOptions struct {
	Synth   synth.Synthesizer
	Profile synth.Profile
	Script  string
	Mode    string
	Format  string
	Out     string
}

// runSynth generates takes in a headless session and writes each one. It
// returns the written paths.
func runSynth(cmd *cobra.Command, cfg config.Config, opts synthOptions) ([]string, error) {
	format, err := studio.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	engine := playback.NewEngine(playback.NewNullContext(), nil)
	session := studio.NewSession(opts.Synth, engine, opts.Profile,
		studio.WithMaxScriptBytes(cfg.Server.MaxTextBytes))

	var takes []studio.Take
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case modeGenerate, "":
		var take studio.Take
		take, err = session.Generate(cmd.Context(), opts.Script)
		takes = []studio.Take{take}
	case modeVariations:
		takes, err = session.GenerateVariations(cmd.Context(), opts.Script)
	case modeHighPitch, "high_pitch":
		var take studio.Take
		take, err = session.GenerateHighPitch(cmd.Context(), opts.Script)
		takes = []studio.Take{take}
	default:
		return nil, fmt.Errorf("invalid mode %q (expected %s|%s|%s)", opts.Mode, modeGenerate, modeVariations, modeHighPitch)
	}
	if err != nil {
		return nil, err
	}

	if opts.Out != "" && len(takes) > 1 {
		return nil, fmt.Errorf("--out names one file but %s produced %d takes; use --output-dir", opts.Mode, len(takes))
	}

	var paths []string
	for _, take := range takes {
		ex, err := session.ExportTake(opts.Profile, take, format)
		if err != nil {
			return nil, err
		}

		path := opts.Out
		if path == "" {
			if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
			path = filepath.Join(cfg.Paths.OutputDir, ex.Filename)
		}
		if err := writeOutput(path, ex.Data, cmd.OutOrStdout()); err != nil {
			return nil, err
		}
		if path != "-" {
			paths = append(paths, path)
		}
	}

	return paths, nil
}
