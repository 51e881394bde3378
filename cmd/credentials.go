package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	keyringstore "github.com/bnema/fconline-autospin/internal/adapters/secrets/keyring"
	passstore "github.com/bnema/fconline-autospin/internal/adapters/secrets/pass"
	"github.com/bnema/fconline-autospin/internal/config"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/cobra"
)

func newCredentialsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the encrypted login credential of an account",
	}

	cmd.AddCommand(
		newCredentialsSetCmd(app),
		newCredentialsClearCmd(app),
		newCredentialsShowCmd(app),
		newCredentialsResetKeyCmd(app),
	)

	return cmd
}

func newCredentialsSetCmd(app *app) *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Encrypt and store the login credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}

			var cred domain.Credential
			if passwordStdin {
				if strings.TrimSpace(username) == "" {
					return errors.New("--password-stdin requires --username")
				}
				secret, err := readSecretLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				cred = domain.Credential{Username: username, Secret: secret}
			} else {
				if cred, err = app.promptCredential(cmd, username); err != nil {
					return err
				}
			}

			if err := app.service.SetCredential(cmd.Context(), id, cred); err != nil {
				return fmt.Errorf("save credential: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored credential for account %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Garena username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func newCredentialsClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored credential and session cookies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}
			if err := app.service.ClearCredential(cmd.Context(), id); err != nil {
				return fmt.Errorf("clear credential: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared credential for account %s\n", id)
			return nil
		},
	}
}

func newCredentialsResetKeyCmd(app *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset-key",
		Short: "Invalidate the vault master key and remove every stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("reset-key removes the credential of every account; pass --yes to confirm")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			keyErr := app.vault.ResetKey(ctx)
			switch {
			case keyErr == nil:
			case errors.Is(keyErr, keyringstore.ErrUnavailable) && errors.Is(keyErr, passstore.ErrUnavailable):
				app.log.WithError(keyErr).Debug("no secure storage holds a master key")
				_, _ = fmt.Fprintln(out, "No master key in secure storage; credentials sealed with the machine key are removed")
			default:
				return fmt.Errorf("reset vault key: %w", keyErr)
			}

			profiles, err := app.service.Profiles(ctx)
			if err != nil {
				return err
			}
			var errs []error
			for _, profile := range profiles {
				if err := app.service.ClearCredential(ctx, profile.Account.ID); err != nil {
					errs = append(errs, fmt.Errorf("account %s: %w", profile.Account.ID, err))
					continue
				}
				_, _ = fmt.Fprintf(out, "Cleared credential for account %s\n", profile.Account.ID)
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("clear credentials: %w", err)
			}

			_, _ = fmt.Fprintln(out, "Vault key reset")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm removing every stored credential")

	return cmd
}

func newCredentialsShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which username is stored (never the password)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}
			cred, err := app.service.Credential(cmd.Context(), id)
			if err != nil {
				if domain.IsCorrupted(err) {
					return fmt.Errorf("%w; run `fca credentials set --account %s` to store it again", err, id)
				}
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account: %s\nusername: %s\npassword: %s\n", id, cred.Username, maskSecret(cred.Secret))
			return nil
		},
	}
}

// resolveCredential looks for a credential in flags, then FC_USERNAME and
// FC_PASSWORD, then the vault, and finally prompts on a terminal.
func (a *app) resolveCredential(cmd *cobra.Command, id domain.AccountID, username, password string) (domain.Credential, error) {
	if flagCred := (domain.Credential{Username: username, Secret: password}); flagCred.Valid() {
		return flagCred, nil
	}

	envCred, ok, err := config.EnvCredential(nil)
	if err != nil {
		return domain.Credential{}, err
	}
	if ok {
		a.log.Debug("using credential from environment")
		return envCred, nil
	}

	stored, err := a.service.Credential(cmd.Context(), id)
	switch {
	case err == nil:
		return stored, nil
	case !errors.Is(err, domain.ErrCredentialNotSet):
		return domain.Credential{}, err
	}

	if !a.isTerminal(a.stdinFD()) {
		return domain.Credential{}, fmt.Errorf("%w for account %s; run `fca credentials set --account %s` or set FC_USERNAME and FC_PASSWORD", domain.ErrCredentialNotSet, id, id)
	}
	return a.promptCredential(cmd, username)
}

func (a *app) promptCredential(cmd *cobra.Command, username string) (domain.Credential, error) {
	out := cmd.ErrOrStderr()
	if strings.TrimSpace(username) == "" {
		_, _ = fmt.Fprint(out, "Username: ")
		line, err := readSecretLine(cmd.InOrStdin())
		if err != nil {
			return domain.Credential{}, err
		}
		username = line
	}

	_, _ = fmt.Fprint(out, "Password: ")
	secret, err := a.readPassword(a.stdinFD())
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("read password: %w", err)
	}

	cred := domain.Credential{Username: strings.TrimSpace(username), Secret: string(secret)}
	if !cred.Valid() {
		return domain.Credential{}, errors.New("username and password must not be empty")
	}
	return cred, nil
}

func readSecretLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty input")
	}
	return line, nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	return strings.Repeat("*", 8)
}
