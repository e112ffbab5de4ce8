package geoai

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print recorded token usage and estimated cost",
	Long:  "Print the token usage recorded in the telemetry database. Requires telemetry to be enabled.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Telemetry.Enabled {
			return errors.New("telemetry is disabled; enable it with --telemetry or telemetry.enabled")
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		usage, cost, err := a.tracker.Totals(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Prompt tokens:     %d\n", usage.PromptTokens)
		fmt.Fprintf(out, "Completion tokens: %d\n", usage.CompletionTokens)
		fmt.Fprintf(out, "Total tokens:      %d\n", usage.TotalTokens)
		fmt.Fprintf(out, "Estimated cost:    $%.4f\n", cost)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
