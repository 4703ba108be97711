package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/server"
)

func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running studio server and report its active profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			h, err := server.ProbeHTTP(addr)
			if err != nil {
				return fmt.Errorf("studio server at %s: %w", addr, err)
			}

			state := "idle"
			if h.Generating {
				state = "generating"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s profile=%s takes=%d %s\n", h.Status, h.Profile, h.Takes, state)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Studio server address to probe")

	return cmd
}
