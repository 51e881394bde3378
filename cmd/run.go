package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/config"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in, watch the special jackpot and spin once it reaches the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := app.accountID(cmd)
			if err != nil {
				return err
			}

			au, err := app.buildAutomation(cmd, id, automationOptions{Observers: true})
			if err != nil {
				return err
			}

			cred, err := app.resolveCredential(cmd, id, creds.username, creds.password)
			if err != nil {
				return err
			}

			runner := application.NewRunner(application.RunnerConfig{
				Session: au.session,
				Engine: application.EngineConfig{
					Tier:        au.settings.Tier,
					Target:      au.settings.Target,
					Cooldown:    au.settings.Engine.Cooldown,
					MaxAttempts: au.settings.Engine.MaxAttempts,
				},
				Restarts: au.settings.Restarts,
				Duration: au.settings.Duration,
				Channel:  au.channelFactory(),
			}, application.RunnerDeps{
				Sessions:   au.sessions,
				Login:      au.login,
				Monitor:    au.monitor,
				Credential: application.StaticCredential(cred),
				Events:     au.bus,
				Log:        app.log,
				OnAuthenticated: func(ctx context.Context, s *application.Session) error {
					return app.markLogin(ctx, s.AccountID())
				},
			})

			if config.WatchTarget(app.v, app.log, runner.SetTarget) {
				app.log.WithField("file", app.v.ConfigFileUsed()).Debug("watching config for target changes")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			first := au.bus.Subscribe()
			if err := runner.Start(ctx); err != nil {
				first.Close()
				return err
			}

			app.log.WithFields(logrus.Fields{
				"event":  au.event.Name,
				"tier":   au.settings.Tier,
				"target": au.settings.Target,
			}).Info("auto-spin started")

			if app.isTerminal(int(os.Stderr.Fd())) {
				waitFirst := func(ctx context.Context) error {
					select {
					case <-first.C():
					case <-runner.Done():
					case <-ctx.Done():
					}
					return nil
				}
				if err := runLaunchSpinner(ctx, cmd.ErrOrStderr(), "Launching browser...", waitFirst); err != nil && !errors.Is(err, context.Canceled) {
					app.log.WithError(err).Debug("launch spinner stopped")
				}
			}
			first.Close()

			if err := runner.Wait(); err != nil {
				return fmt.Errorf("run account %s: %w", id, err)
			}
			app.log.Info("auto-spin stopped")
			return nil
		},
	}

	addSessionFlags(cmd, &creds)
	flags := cmd.Flags()
	flags.Int("spin-action", 1, "Spin tier to buy (1-4)")
	flags.Int64("target", 0, "Special jackpot threshold; 0 only watches")
	flags.String("spin-mode", config.SpinModeAPI, "How to spin: api or click")
	flags.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	flags.Int("restart", 3, "How many times a lost session is reopened")
	flags.String("channel-mode", config.ChannelModeBrowser, "Push channel source: browser or direct")
	flags.String("channel-url", "", "Websocket URL for --channel-mode direct")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.String("redis-addr", "", "Publish activity events to this redis server")

	return cmd
}

type credentialFlags struct {
	username string
	password string
}

// addSessionFlags registers the flags shared by commands that open a browser
// session.
func addSessionFlags(cmd *cobra.Command, creds *credentialFlags) {
	flags := cmd.Flags()
	flags.StringVar(&creds.username, "username", "", "Garena username (default FC_USERNAME or the stored credential)")
	flags.StringVar(&creds.password, "password", "", "Garena password (prefer FC_PASSWORD or `fca credentials set`)")
	flags.String("event", "bilac", "Event to play (see `fca events`)")
	flags.String("base-url", "", "Event base URL; defines a custom event when --event is empty")
	flags.String("user-endpoint", "", "User info path relative to the base URL")
	flags.String("spin-endpoint", "", "Spin path relative to the base URL")
	flags.Bool("headless", false, "Run the browser without a window")
	flags.String("browser-path", "", "Chrome or Chromium executable")
	flags.Duration("login-timeout", 30*time.Second, "How long a submitted login may take")
	flags.Int("launch-attempts", 3, "Browser launch attempts before giving up")
}

func (a *app) markLogin(ctx context.Context, id domain.AccountID) error {
	err := a.service.MarkLogin(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil
	}
	return err
}
