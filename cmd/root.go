package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"audioforge/server"
)

var rootCmd = &cobra.Command{
	Use:   "audioforge",
	Short: "AudioForge is the backend for the audio tools web app.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
