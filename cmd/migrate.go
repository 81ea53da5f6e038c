package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"audioforge/config"
	"audioforge/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL schema",
	Long:  `Connect to the configured MySQL database and create the users, audio_files and processing_jobs tables if they do not exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := db.ConnectDB(cfg); err != nil {
			return err
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			return err
		}
		fmt.Println("Schema is up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
