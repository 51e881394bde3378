package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/fconline-autospin/internal/adapters/channel/wsdial"
	"github.com/bnema/fconline-autospin/internal/adapters/eventbus"
	"github.com/bnema/fconline-autospin/internal/adapters/eventbus/redissink"
	"github.com/bnema/fconline-autospin/internal/adapters/metrics"
	"github.com/bnema/fconline-autospin/internal/adapters/render/activity"
	"github.com/bnema/fconline-autospin/internal/adapters/repo/sqlite"
	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/config"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// automation is the per-command stack behind `run` and `login`.
type automation struct {
	account  domain.AccountID
	settings config.Settings
	event    domain.EventConfig
	bus      *eventbus.Bus
	sessions *application.SessionManager
	login    *application.LoginHandler
	monitor  *application.Monitor
	session  application.SessionConfig
}

type automationOptions struct {
	// Observers attaches history, metrics and redis sinks.
	Observers bool
}

func (a *app) buildAutomation(cmd *cobra.Command, id domain.AccountID, opts automationOptions) (*automation, error) {
	ctx := cmd.Context()

	settings, err := config.Load(a.v, id)
	if err != nil {
		return nil, err
	}
	profile, found, err := a.profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if found {
		applyProfile(cmd, &settings, profile.Account)
	}

	event, err := a.catalog.Resolve(settings.Event, settings.Overrides)
	if err != nil {
		return nil, err
	}

	log := a.log.WithFields(logrus.Fields{"account": id, "event": event.Name})
	bus := eventbus.New()

	var frameMetrics application.FrameMetrics
	if opts.Observers {
		history, err := sqlite.Open(settings.HistoryPath)
		if err != nil {
			return nil, err
		}
		a.onClose(history.Close)
		bus.Attach(ctx, "history", eventbus.NewHistorySink(history, event.Name), log)

		if settings.MetricsAddr != "" {
			collector, err := a.startMetrics(ctx, settings.MetricsAddr, log)
			if err != nil {
				bus.Close()
				return nil, err
			}
			bus.Attach(ctx, "metrics", collector, log)
			frameMetrics = collector
		}

		if settings.Redis.Addr != "" {
			sink, err := redissink.Connect(ctx, redissink.Options{
				Addr:     settings.Redis.Addr,
				Password: settings.Redis.Password,
				Stream:   settings.Redis.Stream,
			}, log)
			if err != nil {
				bus.Close()
				return nil, err
			}
			a.onClose(sink.Close)
			bus.Attach(ctx, "redis", sink, log)
		}
	}

	if settings.LogFormat == "json" {
		bus.Attach(ctx, "log", eventbus.NewLogSink(a.log), log)
	} else {
		bus.Attach(ctx, "activity", activity.New(cmd.OutOrStdout(), activity.Options{
			ShowDebug: a.log.IsLevelEnabled(logrus.DebugLevel),
		}), log)
	}
	a.onClose(func() error {
		bus.Close()
		return nil
	})

	launch, err := launchOptions(id, settings)
	if err != nil {
		return nil, err
	}

	clock := ports.SystemClock{}
	return &automation{
		account:  id,
		settings: settings,
		event:    event,
		bus:      bus,
		sessions: application.NewSessionManager(a.newBrowser(log), a.vault, bus, clock, log),
		login: application.NewLoginHandler(application.LoginConfig{
			Timeout:     settings.Login.Timeout,
			CaptchaPoll: settings.Login.CaptchaPoll,
			Retries:     settings.Login.Retries,
		}, bus, clock, log),
		monitor: application.NewMonitor(bus, clock, log, frameMetrics),
		session: application.SessionConfig{
			AccountID:      id,
			Event:          event,
			Launch:         launch,
			LaunchAttempts: settings.Browser.LaunchAttempts,
			RestoreCookies: true,
			SpinMode:       application.SpinMode(settings.SpinMode),
			SpinTimeout:    settings.Engine.SpinTimeout,
		},
	}, nil
}

// applyProfile lets a stored profile fill in what was not given as a flag.
func applyProfile(cmd *cobra.Command, settings *config.Settings, account domain.Account) {
	flags := cmd.Flags()
	if account.Event != "" && !flags.Changed("event") && !flags.Changed("base-url") {
		settings.Event = account.Event
	}
	if account.Settings.Tier.Valid() && !flags.Changed("spin-action") {
		settings.Tier = account.Settings.Tier
	}
	if account.Settings.TargetSpecialJackpot > 0 && !flags.Changed("target") {
		settings.Target = account.Settings.TargetSpecialJackpot
	}
}

func launchOptions(id domain.AccountID, settings config.Settings) (ports.LaunchOptions, error) {
	scripts, err := config.StealthScripts(settings.Browser.Locale)
	if err != nil {
		return ports.LaunchOptions{}, err
	}
	return ports.LaunchOptions{
		ExecPath:       settings.Browser.ExecPath,
		Headless:       settings.Browser.Headless,
		UserDataDir:    settings.Browser.ProfileDir,
		UserAgent:      config.UserAgentFor(id, settings.Browser.UserAgents),
		Locale:         settings.Browser.Locale,
		Timezone:       settings.Browser.Timezone,
		WindowWidth:    settings.Browser.Width,
		WindowHeight:   settings.Browser.Height,
		StealthScripts: scripts,
	}, nil
}

func (a *app) startMetrics(ctx context.Context, addr string, log logrus.FieldLogger) (*metrics.Collector, error) {
	collector := metrics.NewCollector()
	server := metrics.NewServer(addr, metrics.DefaultEndpoint, log)
	if err := server.Setup(collector); err != nil {
		return nil, err
	}
	if err := server.Start(ctx); err != nil {
		return nil, err
	}
	a.onClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return collector, nil
}

// channelFactory dials the push channel directly with the session cookies
// instead of listening through the page.
func (au *automation) channelFactory() application.ChannelFactory {
	if au.settings.Channel.Mode != config.ChannelModeDirect {
		return nil
	}
	url := au.settings.Channel.URL
	userAgent := au.session.Launch.UserAgent
	return func(ctx context.Context, s *application.Session) (ports.FrameSource, error) {
		cookies, err := s.Page().Cookies(ctx)
		if err != nil {
			return nil, fmt.Errorf("read session cookies: %w", err)
		}
		return wsdial.NewSource(url, cookies, userAgent), nil
	}
}
