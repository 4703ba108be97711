package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/studio"
	"github.com/example/voicestudio/internal/tui"
	"github.com/example/voicestudio/internal/waveform"
)

func newStudioCmd() *cobra.Command {
	var text string
	var profileID string

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Open the interactive terminal studio",
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
			theme, err := waveform.ThemeByName(cfg.Waveform.Theme)
			if err != nil {
				return err
			}
			synthesizer, err := newSynthesizer(cfg.Synth)
			if err != nil {
				return err
			}

			out, err := openOutput(cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = out.Close() }()

			relay := tui.NewRelay()
			engine := playback.NewEngine(out,
				playback.NewTimerScheduler(cfg.Playback.FrameRate),
				playback.WithNotify(relay.Notify))
			session := studio.NewSession(synthesizer, engine, profile,
				studio.WithMaxScriptBytes(cfg.Server.MaxTextBytes))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			model := tui.NewModel(ctx, session, lib.List(),
				tui.WithScript(text),
				tui.WithRelay(relay),
				tui.WithTheme(theme),
				tui.WithSaver(tui.DirSaver(cfg.Paths.OutputDir)),
			)

			return tui.Run(ctx, model)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Initial script")
	cmd.Flags().StringVar(&profileID, "profile", "", "Initial voice profile id (default: first in the manifest)")

	return cmd
}
