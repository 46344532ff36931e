package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &AppFlags{}

	cmd := &cobra.Command{
		Use:   "userprobe [flags] USERNAME...",
		Short: "Hunt down a username across hundreds of sites",
		Long: `userprobe checks whether a username is registered on every site in a
Sherlock-style catalog. Each site is probed concurrently with its own timeout;
press Ctrl+C once to abandon in-flight probes and keep the partial results, or
twice to exit immediately.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd, flags)
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), args)
		},
	}

	bindFlags(cmd, flags)
	return cmd
}
