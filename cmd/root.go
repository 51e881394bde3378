package cmd

import (
	"errors"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/cobra"
)

const (
	exitFailure     = 1
	exitCredentials = 2
	exitBrowser     = 3
)

func Execute() error {
	app := newApp()
	defer app.close()
	return newRootCmd(app).Execute()
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrBrowserUnavailable):
		return exitBrowser
	case errors.Is(err, domain.ErrCredentialNotSet),
		errors.Is(err, domain.ErrDecryption),
		errors.Is(err, domain.ErrEncryption),
		errors.Is(err, domain.ErrInvalidCredentials):
		return exitCredentials
	default:
		return exitFailure
	}
}

func newRootCmd(app *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fca",
		Short: "FC Online auto-spin (fca): watch event jackpots and spin at your threshold",
		Long: "fca logs into an FC Online jackpot event through an automated browser, follows the live " +
			"special jackpot over the event's push channel and spins once it reaches your target.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagAccount, "default", "Account ID")
	flags.String(flagConfig, "", "Config file (default $XDG_CONFIG_HOME/fca/config.toml)")
	flags.String(flagEnvFile, "", "Load environment variables from this .env file (default ./.env when present)")
	flags.String(flagLogLevel, "INFO", "Log level: TRACE, DEBUG, INFO, WARNING, ERROR or CRITICAL")
	flags.String(flagLogFormat, "text", "Log format: text or json")
	flags.String(flagDataDir, "", "Directory for the vault, cookies, history and browser profiles")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newCredentialsCmd(app),
		newEventsCmd(app),
		newHistoryCmd(app),
		newLoginCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
