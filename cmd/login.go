package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		creds credentialFlags
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in once, save the session cookies and show player info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}

			au, err := app.buildAutomation(cmd, id, automationOptions{})
			if err != nil {
				return err
			}

			cred, err := app.resolveCredential(cmd, id, creds.username, creds.password)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := au.sessions.Open(ctx, au.session)
			if err != nil {
				return err
			}
			defer func() {
				_ = au.sessions.Close(context.WithoutCancel(ctx), s)
			}()

			if _, err := au.login.Authenticate(ctx, s, application.StaticCredential(cred)); err != nil {
				return err
			}

			if err := au.sessions.SaveCookies(ctx, s); err != nil {
				return fmt.Errorf("save session cookies: %w", err)
			}
			if save {
				if err := app.service.SetCredential(ctx, id, cred); err != nil {
					return fmt.Errorf("save credential: %w", err)
				}
			}
			if err := app.markLogin(ctx, id); err != nil {
				app.log.WithError(err).Warn("recording login time failed")
			}

			user, err := au.sessions.LookupUser(ctx, s)
			if err != nil {
				app.log.WithError(err).Warn("user lookup failed")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in account %s\n", id)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in account %s as %s (FC %d, MC %d, free spins %d)\n",
				id, user.Nickname, user.FC, user.MC, user.FreeSpin)
			return nil
		},
	}

	addSessionFlags(cmd, &creds)
	cmd.Flags().BoolVar(&save, "save", false, "Store the credential in the vault after a successful login")

	return cmd
}
