package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daylog-io/daylog/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync cycle against external sources now",
	Long: `Ask the running server to sync external sources immediately instead of
waiting for the next scheduled cycle.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var res syncer.CycleResult
		if err := client.post(cmd.Context(), "/sync", struct{}{}, &res); err != nil {
			return err
		}

		fmt.Printf("Synced: %d fetched, %d stored, %d duplicates, %d skipped\n",
			res.Fetched, res.Stored, res.Duplicates, res.Skipped)
		return nil
	},
}
