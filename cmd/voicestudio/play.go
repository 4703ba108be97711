package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/playback"
	"github.com/example/voicestudio/internal/studio"
)

const playPollInterval = 50 * time.Millisecond

func newPlayCmd() *cobra.Command {
	var from float64
	var selection string

	cmd := &cobra.Command{
		Use:   "play <audio-file>",
		Short: "Play an audio file, optionally a range of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			buf, err := loadInput(cfg, args[0], 0)
			if err != nil {
				return err
			}
			sel, err := parseRange(selection, buf.Duration())
			if err != nil {
				return err
			}

			out, err := openOutput(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = out.Close() }()

			engine := playback.NewEngine(out, playback.NewTimerScheduler(cfg.Playback.FrameRate))
			engine.SetBuffer(buf)
			engine.SetSelection(sel)
			if sel != nil && from == 0 {
				from = sel.Start
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return playToEnd(ctx, engine, from, func(st playback.State) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\r%s / %s", studio.FormatTime(st.CurrentTime), studio.FormatTime(st.Duration))
			})
		},
	}

	cmd.Flags().Float64Var(&from, "from", 0, "Start position in seconds")
	cmd.Flags().StringVar(&selection, "select", "", "Play only start:end seconds")

	return cmd
}

// playToEnd starts playback at from and blocks until the engine stops on its
// own or ctx ends, reporting progress on every poll.
func playToEnd(ctx context.Context, engine *playback.Engine, from float64, progress func(playback.State)) error {
	if err := engine.Play(ctx, from); err != nil {
		return err
	}
	slog.Debug("playing", slog.Float64("from", from), slog.Float64("duration", engine.State().Duration))

	ticker := time.NewTicker(playPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			engine.Stop(false)
			return nil
		case <-ticker.C:
			st := engine.State()
			if progress != nil {
				progress(st)
			}
			if !st.Playing {
				return nil
			}
		}
	}
}
