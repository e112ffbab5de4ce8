package geoai

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached results",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [key...]",
	Short: "Remove cached results by key",
	Long:  "Remove cached results by key. Keys are printed in the logs and returned by the HTTP API.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, key := range args {
			if err := a.client.ClearCache(key); err != nil {
				return fmt.Errorf("failed to clear %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", key)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
