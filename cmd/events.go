package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the jackpot events fca knows about",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tTITLE\tURL\tSPIN TIERS")
			for _, ev := range app.catalog.Events() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", ev.Name, ev.Title, ev.BaseURL, len(ev.SpinActions))
			}
			return w.Flush()
		},
	}
}
