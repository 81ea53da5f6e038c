package cmd

import (
	"github.com/spf13/cobra"

	"audioforge/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AudioForge HTTP server",
	Long:  `Start the AudioForge HTTP server serving the upload, processing and stats APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
