package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/config"
	"github.com/example/voicestudio/internal/doctor"
	"github.com/example/voicestudio/internal/synth"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check API key, profiles, output directory and audio device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			backend, err := config.NormalizePlaybackBackend(cfg.Playback.Backend)
			if err != nil {
				return err
			}

			result := doctor.Run(doctor.Config{
				APIKey: cfg.Synth.APIKey,
				LoadProfiles: func() ([]synth.Profile, error) {
					lib, err := synth.NewLibrary(cfg.Paths.ProfilesPath)
					if err != nil {
						return nil, err
					}
					return lib.List(), nil
				},
				OutputDir: cfg.Paths.OutputDir,
				Theme:     cfg.Waveform.Theme,
				OpenAudio: func() (string, error) {
					out, err := openOutput(cfg, false)
					if err != nil {
						return "", err
					}
					if err := out.Close(); err != nil {
						return "", err
					}
					return fmt.Sprintf("%s %d Hz, %d ch", backend, cfg.Audio.SampleRate, cfg.Audio.Channels), nil
				},
				SkipAudio: backend == config.PlaybackNull,
			}, cmd.OutOrStdout())

			if result.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(result.Failures()))
			}
			return nil
		},
	}
}
