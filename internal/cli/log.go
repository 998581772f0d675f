package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/timespan"
)

var (
	logProject  string
	logDuration string
	logTags     []string
	logRaw      bool
)

var logCmd = &cobra.Command{
	Use:   "log <text>",
	Short: "Record an activity",
	Long: `Record an activity entry. By default the text is sent as-is and the
server infers action, project, duration, and tags. Flags pin individual
fields; --raw skips inference entirely and stores the text as the action.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{
			"source": string(domain.SourceCLI),
		}
		if logRaw {
			body["action"] = text
		} else {
			body["text"] = text
		}
		if logProject != "" {
			body["project"] = logProject
		}
		if logDuration != "" {
			minutes, ok := timespan.ParseField(logDuration)
			if !ok {
				return fmt.Errorf("--duration: cannot parse %q", logDuration)
			}
			body["duration_minutes"] = minutes
		}
		if len(logTags) > 0 {
			body["tags"] = logTags
		}

		var entry domain.LogEntry
		if err := client.post(cmd.Context(), "/logs", body, &entry); err != nil {
			return err
		}

		fmt.Printf("Logged #%d: %s\n", entry.ID, entry.Action)
		if entry.Project != "" {
			fmt.Printf("  project:  %s\n", entry.Project)
		}
		if entry.DurationMinutes != nil {
			fmt.Printf("  duration: %.0f min\n", *entry.DurationMinutes)
		}
		if len(entry.Tags) > 0 {
			fmt.Printf("  tags:     %s\n", strings.Join(entry.Tags, ", "))
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringVarP(&logProject, "project", "p", "", "project name")
	logCmd.Flags().StringVarP(&logDuration, "duration", "d", "", `duration, e.g. "45m", "1.5 hours", or bare minutes`)
	logCmd.Flags().StringSliceVarP(&logTags, "tags", "t", nil, "comma-separated tags")
	logCmd.Flags().BoolVar(&logRaw, "raw", false, "store text as the action without inference")
}
