package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/voicestudio/internal/synth"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the voice profiles in the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			lib, err := loadLibrary(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tVOICE\tCLONED")
			for _, p := range lib.List() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Name, p.Category, synth.SelectVoice(p), p.Cloned())
			}

			return tw.Flush()
		},
	}
}
