package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daylog-io/daylog/internal/domain"
)

var (
	listSource string
	listLimit  int
	listDays   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent log entries, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		query := url.Values{}
		if listSource != "" {
			query.Set("source", listSource)
		}
		if listLimit > 0 {
			query.Set("limit", strconv.Itoa(listLimit))
		}
		if listDays > 0 {
			query.Set("start", daysAgo(listDays))
		}

		var entries []domain.LogEntry
		if err := client.get(cmd.Context(), "/logs", query, &entries); err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  [%s]  %s", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Source, e.Action)
			var extras []string
			if e.Project != "" {
				extras = append(extras, e.Project)
			}
			if e.DurationMinutes != nil {
				extras = append(extras, fmt.Sprintf("%.0f min", *e.DurationMinutes))
			}
			if len(extras) > 0 {
				fmt.Printf("  (%s)", strings.Join(extras, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSource, "source", "s", "", "filter by input channel (cli, api, telegram, github_commit, github_pr)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "maximum entries to show")
	listCmd.Flags().IntVar(&listDays, "days", 0, "only entries from the last N days")
}
