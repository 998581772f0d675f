// Package cli implements the daylog CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "daylog",
	Short: "Personal activity logging across chat, CLI, and code hosting",
	Long: `Daylog aggregates what you did into one timeline: free-form notes from
the CLI or Telegram, plus commits and pull requests synced from GitHub.
Entries are normalized, stored, and queryable in plain language.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}
