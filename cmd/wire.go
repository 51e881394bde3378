package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/fconline-autospin/internal/adapters/browser"
	statusadapter "github.com/bnema/fconline-autospin/internal/adapters/render/status"
	tomlrepo "github.com/bnema/fconline-autospin/internal/adapters/repo/toml"
	chainstore "github.com/bnema/fconline-autospin/internal/adapters/secrets/chain"
	filestore "github.com/bnema/fconline-autospin/internal/adapters/secrets/file"
	"github.com/bnema/fconline-autospin/internal/adapters/vault"
	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/config"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	secretService = "fca"
	passPrefix    = "fca"
)

const (
	flagConfig    = "config"
	flagEnvFile   = "env-file"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagDataDir   = "data-dir"
	flagAccount   = "account"
)

// flagKeys binds command flags to configuration keys. Flags a command does
// not define are skipped.
var flagKeys = map[string]string{
	flagLogLevel:      config.KeyLogLevel,
	flagLogFormat:     config.KeyLogFormat,
	flagDataDir:       config.KeyDataDir,
	"event":           config.KeyEvent,
	"base-url":        config.KeyBaseURL,
	"user-endpoint":   config.KeyUserEndpoint,
	"spin-endpoint":   config.KeySpinEndpoint,
	"spin-action":     config.KeySpinAction,
	"target":          config.KeyTarget,
	"spin-mode":       config.KeySpinMode,
	"duration":        config.KeyDuration,
	"restart":         config.KeyRestart,
	"headless":        config.KeyBrowserHeadless,
	"browser-path":    config.KeyBrowserPath,
	"channel-mode":    config.KeyChannelMode,
	"channel-url":     config.KeyChannelURL,
	"metrics-addr":    config.KeyMetricsAddr,
	"redis-addr":      config.KeyRedisAddr,
	"login-timeout":   config.KeyLoginTimeout,
	"launch-attempts": config.KeyLaunchAttempts,
}

type app struct {
	v       *viper.Viper
	log     *logrus.Logger
	catalog *config.Catalog
	repo    *tomlrepo.Repository
	vault   *vault.Vault
	service *application.Service
	dataDir string

	statusRenderer func([]application.Profile, statusadapter.RenderOptions) (string, error)
	newBrowser     func(log logrus.FieldLogger) ports.Browser
	readPassword   func(fd int) ([]byte, error)
	isTerminal     func(fd int) bool
	now            func() time.Time

	closers []func() error
}

func newApp() *app {
	return &app{
		statusRenderer: statusadapter.Render,
		newBrowser: func(log logrus.FieldLogger) ports.Browser {
			return browser.NewLauncher(log)
		},
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
		now:          time.Now,
	}
}

func (a *app) wire(cmd *cobra.Command) error {
	flags := cmd.Flags()

	envFile, _ := flags.GetString(flagEnvFile)
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := config.LoadDotenv(envFiles...); err != nil {
		return err
	}

	configFile, _ := flags.GetString(flagConfig)
	v, err := config.New(configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, flags); err != nil {
		return err
	}

	log, err := config.NewLogger(cmd.ErrOrStderr(), v.GetString(config.KeyLogLevel), v.GetString(config.KeyLogFormat))
	if err != nil {
		return err
	}

	catalog, err := config.DefaultCatalog()
	if err != nil {
		return err
	}

	dataDir := v.GetString(config.KeyDataDir)
	if dataDir == "" {
		if dataDir, err = config.DefaultDataDir(); err != nil {
			return err
		}
	}

	repo, err := tomlrepo.NewRepository(v)
	if err != nil {
		return fmt.Errorf("wire account repository: %w", err)
	}

	secrets, err := chainstore.NewKeyringFirstWithPassFallback(log, secretService, passPrefix)
	if err != nil {
		return fmt.Errorf("wire secret store chain: %w", err)
	}
	box := vault.New(filestore.NewStore(dataDir), vault.NewKeyProvider(secrets))

	a.v = v
	a.log = log
	a.catalog = catalog
	a.repo = repo
	a.vault = box
	a.dataDir = dataDir
	a.service = application.NewService(repo, box, box, ports.SystemClock{})

	log.WithFields(logrus.Fields{
		"config":   v.ConfigFileUsed(),
		"accounts": repo.Path(),
		"data":     dataDir,
	}).Debug("wired application")
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// onClose registers cleanup that runs after the command finishes.
func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.WithError(err).Debug("cleanup failed")
		}
	}
	a.closers = nil
}

func (a *app) accountID(cmd *cobra.Command) (domain.AccountID, error) {
	raw, err := cmd.Flags().GetString(flagAccount)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", errors.New("--account must not be empty")
	}
	return domain.AccountID(raw), nil
}

// profile returns the stored profile for id, or ok=false when none exists.
func (a *app) profile(ctx context.Context, id domain.AccountID) (application.Profile, bool, error) {
	profile, err := a.service.Profile(ctx, id)
	switch {
	case err == nil:
		return profile, true, nil
	case errors.Is(err, domain.ErrAccountNotFound):
		return application.Profile{}, false, nil
	default:
		return application.Profile{}, false, err
	}
}

func (a *app) stdinFD() int {
	return int(os.Stdin.Fd())
}
