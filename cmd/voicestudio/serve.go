package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/server"
	"github.com/example/voicestudio/internal/studio"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the studio HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			lib, err := loadLibrary(cfg)
			if err != nil {
				return err
			}
			synthesizer, err := newSynthesizer(cfg.Synth)
			if err != nil {
				return err
			}

			// The server renders playhead state but never needs a device.
			engine := playback.NewEngine(playback.NewNullContext(),
				playback.NewTimerScheduler(cfg.Playback.FrameRate))
			session := studio.NewSession(synthesizer, engine, lib.List()[0],
				studio.WithMaxScriptBytes(cfg.Server.MaxTextBytes))

			srv := server.New(cfg, session, lib).
				WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeout) * time.Second)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	return cmd
}
