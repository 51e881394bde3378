package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	statusadapter "github.com/bnema/fconline-autospin/internal/adapters/render/status"
	"github.com/bnema/fconline-autospin/internal/adapters/repo/sqlite"
	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/config"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/cobra"
)

const defaultStaleAfter = 7 * 24 * time.Hour

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON     bool
		all        bool
		staleAfter time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show account profiles, credentials and jackpot progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := loadProfiles(cmd, app, all || !cmd.Flags().Changed(flagAccount))
			if err != nil {
				return err
			}
			return writeProfilesOutput(cmd, app, profiles, staleAfter, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Show every account even when --account is given")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", defaultStaleAfter, "Flag logins older than this")

	return cmd
}

func writeProfilesOutput(cmd *cobra.Command, app *app, profiles []application.Profile, staleAfter time.Duration, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	jackpots, err := latestJackpots(cmd.Context(), app, profiles)
	if err != nil {
		app.log.WithError(err).Warn("reading jackpot history failed")
	}

	titles := make(map[string]string)
	for _, ev := range app.catalog.Events() {
		titles[ev.Name] = ev.Title
	}

	rendered, err := app.statusRenderer(profiles, statusadapter.RenderOptions{
		Now:         app.now(),
		StaleAfter:  staleAfter,
		EventTitles: titles,
		Jackpots:    jackpots,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func loadProfiles(cmd *cobra.Command, app *app, all bool) ([]application.Profile, error) {
	if all {
		return app.service.Profiles(cmd.Context())
	}

	id, err := app.accountID(cmd)
	if err != nil {
		return nil, err
	}
	profile, err := app.service.Profile(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	return []application.Profile{profile}, nil
}

// latestJackpots reads the newest special jackpot sample per account. A
// missing history database yields no samples.
func latestJackpots(ctx context.Context, app *app, profiles []application.Profile) (map[domain.AccountID]int64, error) {
	path := app.historyPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	history, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	defer history.Close()

	jackpots := make(map[domain.AccountID]int64, len(profiles))
	for _, profile := range profiles {
		entries, err := history.Recent(ctx, profile.Account.ID, 20)
		if err != nil {
			return jackpots, err
		}
		for _, entry := range entries {
			if entry.Kind == domain.HistoryValue {
				jackpots[profile.Account.ID] = entry.Value
				break
			}
		}
	}
	return jackpots, nil
}

func (a *app) historyPath() string {
	if path := a.v.GetString(config.KeyHistoryPath); path != "" {
		return path
	}
	return filepath.Join(a.dataDir, "history.db")
}
