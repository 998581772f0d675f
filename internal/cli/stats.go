package cli

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/daylog-io/daylog/internal/stats"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize activity over a trailing window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		query := url.Values{}
		if statsDays > 0 {
			query.Set("window_days", strconv.Itoa(statsDays))
		}

		var rep stats.Report
		if err := client.get(cmd.Context(), "/logs/stats", query, &rep); err != nil {
			return err
		}

		if rep.TotalCount == 0 {
			fmt.Printf("No activity in the last %d days.\n", rep.WindowDays)
			return nil
		}

		fmt.Printf("Last %d days: %d entries, %.0f min tracked\n", rep.WindowDays, rep.TotalCount, rep.TotalDurationMinutes)

		fmt.Println("\nBy source:")
		sources := make([]string, 0, len(rep.CountsBySource))
		for source := range rep.CountsBySource {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Printf("  %-15s %d\n", source, rep.CountsBySource[source])
		}

		if len(rep.TopActions) > 0 {
			fmt.Println("\nTop actions:")
			for _, ac := range rep.TopActions {
				fmt.Printf("  %3d  %s\n", ac.Count, ac.Action)
			}
		}
		return nil
	},
}

// daysAgo formats a lower timestamp bound N days back, RFC 3339 as the API
// expects.
func daysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format(time.RFC3339)
}

func init() {
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "trailing window in days")
}
