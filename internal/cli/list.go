package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			entries, err := deps.App.Catalog.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				formatter.Info("No meetings processed yet")
				return nil
			}

			formatter.MeetingListHeader()
			for _, e := range entries {
				formatter.MeetingListItem(e.Date, e.Title, e.DurationSec, e.Fallback)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of meetings to show (0 for all)")

	return cmd
}
