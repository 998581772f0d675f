package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question about your activity log",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var out struct {
			Answer string `json:"answer"`
		}
		if err := client.post(cmd.Context(), "/query", map[string]any{"question": question}, &out); err != nil {
			return err
		}

		fmt.Println(out.Answer)
		return nil
	},
}
