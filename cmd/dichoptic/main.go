package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "dichoptic",
		Short:             "Command line client for the dichoptic training API",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (env DICHOPTIC_API_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP timeout (env DICHOPTIC_TIMEOUT)")
	rootCmd.PersistentFlags().String("session-file", "", "Where tokens are stored (default <config dir>/dichoptic/session.json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log coordinator activity")

	rootCmd.AddCommand(
		authCommands(a)...,
	)
	rootCmd.AddCommand(scoresCommand(a), settingsCommand(a))
	return rootCmd
}
