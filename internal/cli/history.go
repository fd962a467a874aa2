package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainick2469-sudo/AIOffice-sub002/internal/config"
	"github.com/ainick2469-sudo/AIOffice-sub002/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent operator actions from the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			j, err := journal.Open(home)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tOP\tCHANNEL\tPROJECT\tOUTCOME\tDETAIL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.Op, e.Channel, e.Project, e.Outcome, e.Detail)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries to show")
	return cmd
}
