package cmd

import (
	"fmt"

	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage account profiles",
	}

	cmd.AddCommand(
		newAccountAddCmd(app),
		newAccountListCmd(app),
		newAccountRemoveCmd(app),
	)

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		name   string
		event  string
		tier   int
		target int64
	)

	cmd := &cobra.Command{
		Use:   "add [id]",
		Short: "Create or update an account profile",
		Long:  "Create or update an account profile. Without an id (or with 0) the next free number is assigned.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			id, err := resolveAccountID(cmd.Context(), app, raw)
			if err != nil {
				return err
			}

			if event != "" {
				if _, err := app.catalog.Lookup(event); err != nil {
					return err
				}
			}

			add := application.AddAccountCommand{
				ID:    id,
				Name:  name,
				Event: event,
				Tier:  domain.SpinTier(tier),
			}
			if cmd.Flags().Changed("target") {
				add.Target = &target
			}

			account, err := app.service.AddAccount(cmd.Context(), add)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved account %s (%s)\n", account.ID, account.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&event, "event", "", "Event to play (see `fca events`)")
	cmd.Flags().IntVar(&tier, "spin-action", 0, "Spin tier (1-4)")
	cmd.Flags().Int64Var(&target, "target", 0, "Special jackpot threshold (0 only watches)")

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.service.Profiles(cmd.Context())
			if err != nil {
				return err
			}

			for _, profile := range profiles {
				account := profile.Account
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\ttier %d\ttarget %d\n",
					account.ID, account.Name, account.Event, account.Settings.Tier, account.Settings.TargetSpecialJackpot)
			}

			return nil
		},
	}
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an account profile with its credential and cookies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.AccountID(args[0])
			if err := app.service.RemoveProfile(cmd.Context(), id); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", id)
			return nil
		},
	}
}
