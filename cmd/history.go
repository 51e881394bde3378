package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bnema/fconline-autospin/internal/adapters/repo/sqlite"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded jackpot values and wins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}

			var entries []domain.HistoryEntry
			path := app.historyPath()
			if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
				history, err := sqlite.Open(path)
				if err != nil {
					return err
				}
				defer history.Close()

				if entries, err = history.Recent(cmd.Context(), id, limit); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No jackpot history for account %s\n", id)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TIME\tEVENT\tKIND\tVALUE\tWINNER")
			for _, entry := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					entry.At.Local().Format("2006-01-02 15:04:05"), entry.Event, entry.Kind, entry.Value, entry.Nickname)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
