package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"audioforge/config"
	"audioforge/db"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check Redis connectivity",
	Long:  `Connect to the configured Redis server and run a set/get/del round trip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is not set")
		}
		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer db.CloseRedis()

		if err := db.TestRedis(); err != nil {
			return err
		}
		fmt.Println("Redis connection OK.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
