package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ChannelFactory supplies the push-channel frame source for a logged-in
// session. Nil means the session page itself.
type ChannelFactory func(ctx context.Context, s *Session) (ports.FrameSource, error)

type RunnerConfig struct {
	Session SessionConfig
	// Target, Tier, Cooldown and MaxAttempts feed each engine; AccountID is
	// taken from Session.
	Engine EngineConfig
	// Restarts bounds how many times a lost session is reopened.
	Restarts int
	// Duration > 0 stops the run after that long.
	Duration time.Duration
	Channel  ChannelFactory
}

type RunnerDeps struct {
	Sessions   *SessionManager
	Login      *LoginHandler
	Monitor    *Monitor
	Credential CredentialSource
	Events     ports.EventPublisher
	Clock      ports.Clock
	Log        logrus.FieldLogger

	// OnAuthenticated, when set, runs after every successful login.
	OnAuthenticated func(ctx context.Context, s *Session) error
}

// Runner wires one account's session, login, monitor and engine together
// and owns the restart policy. Start, Stop, SetTarget and Wait are safe to
// call from any goroutine.
type Runner struct {
	cfg  RunnerConfig
	deps RunnerDeps
	log  logrus.FieldLogger
	rep  reporter

	newBackOff func() backoff.BackOff

	mu      sync.Mutex
	started bool
	engine  *Engine
	target  int64
	cancel  context.CancelFunc

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

func NewRunner(cfg RunnerConfig, deps RunnerDeps) *Runner {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if cfg.Restarts < 0 {
		cfg.Restarts = 0
	}
	cfg.Engine.AccountID = cfg.Session.AccountID
	if cfg.Engine.TierLabel == "" {
		cfg.Engine.TierLabel = cfg.Session.Event.TierLabel(cfg.Engine.Tier)
	}
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		log:    orDiscard(deps.Log).WithField("account", cfg.Session.AccountID),
		rep:    newReporter(deps.Events, deps.Clock, cfg.Session.AccountID),
		target: cfg.Engine.Target,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 5 * time.Second
			b.MaxInterval = time.Minute
			b.MaxElapsedTime = 0
			return b
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the automation loop in its own goroutine.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("runner already started")
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	stopTimer := context.CancelFunc(func() {})
	if r.cfg.Duration > 0 {
		runCtx, stopTimer = context.WithTimeout(runCtx, r.cfg.Duration)
	}

	go func() {
		defer close(r.done)
		defer cancel()
		defer stopTimer()
		r.err = r.run(runCtx)
	}()
	return nil
}

// Stop requests a cooperative shutdown. The session is closed on the way out.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.mu.Lock()
		engine, cancel := r.engine, r.cancel
		r.mu.Unlock()
		if engine != nil {
			engine.Stop()
		}
		if cancel != nil {
			cancel()
		}
	})
}

// Wait blocks until the run ends. A requested stop, the end of the
// configured duration and ctx cancellation are normal endings and return nil.
func (r *Runner) Wait() error {
	<-r.done
	return r.err
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// SetTarget updates the threshold of the running and any future engine.
func (r *Runner) SetTarget(target int64) {
	r.mu.Lock()
	r.target = target
	engine := r.engine
	r.mu.Unlock()
	if engine != nil {
		engine.SetTarget(target)
	}
}

func (r *Runner) Engine() (EngineSnapshot, bool) {
	r.mu.Lock()
	engine := r.engine
	r.mu.Unlock()
	if engine == nil {
		return EngineSnapshot{}, false
	}
	return engine.State(), true
}

func (r *Runner) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

func (r *Runner) run(ctx context.Context) error {
	attempt := 0
	op := func() error {
		attempt++
		err := r.runOnce(ctx)
		switch {
		case err == nil:
			return nil
		case r.stopping() || ctx.Err() != nil:
			return backoff.Permanent(err)
		case IsFatal(err):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, wait time.Duration) {
		r.log.WithError(err).WithField("attempt", attempt).Warn("session ended, restarting")
		r.rep.warn(domain.CategorySession, "Session ended (%v), restarting in %s (%d/%d)", err, wait.Round(time.Second), attempt, r.cfg.Restarts)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.cfg.Restarts)), ctx)
	err := backoff.RetryNotify(op, policy, notify)
	switch {
	case err == nil:
		return nil
	case r.stopping() || ctx.Err() != nil:
		r.log.WithError(err).Debug("run ended by stop request")
		return nil
	case IsFatal(err):
		return err
	case alreadyReported(err):
		if r.cfg.Restarts > 0 {
			r.rep.warn(domain.CategorySession, "Giving up after %d restarts", r.cfg.Restarts)
		}
		return err
	case r.cfg.Restarts > 0:
		r.rep.fail(domain.CategorySession, "Giving up after %d restarts: %v", r.cfg.Restarts, err)
		return err
	default:
		r.rep.fail(domain.CategorySession, "Session ended: %v", err)
		return err
	}
}

// runOnce drives one session from launch to teardown. The session is closed
// on every return path.
func (r *Runner) runOnce(ctx context.Context) (err error) {
	cfg := r.cfg
	sessions := r.deps.Sessions

	s, err := sessions.Open(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sessions.Close(context.WithoutCancel(ctx), s); closeErr != nil {
			r.log.WithError(closeErr).Warn("closing browser session failed")
		}
	}()

	if _, err := r.deps.Login.Authenticate(ctx, s, r.deps.Credential); err != nil {
		return err
	}

	if err := sessions.SaveCookies(ctx, s); err != nil {
		r.log.WithError(err).Warn("saving session cookies failed")
	}
	if hook := r.deps.OnAuthenticated; hook != nil {
		if err := hook(ctx, s); err != nil {
			r.log.WithError(err).Warn("post-login hook failed")
		}
	}

	var nickname string
	if user, err := sessions.LookupUser(ctx, s); err != nil {
		r.log.WithError(err).Warn("user lookup failed")
		r.rep.warn(domain.CategoryUser, "Could not load player info: %v", err)
	} else {
		nickname = user.Nickname
	}

	var src ports.FrameSource = s.Page()
	if cfg.Channel != nil {
		if src, err = cfg.Channel(ctx, s); err != nil {
			return fmt.Errorf("open push channel: %w", err)
		}
	}

	stream, err := r.deps.Monitor.Attach(ctx, src, AttachOptions{
		AccountID: cfg.Session.AccountID,
		Nickname:  func() string { return nickname },
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			r.log.WithError(closeErr).Debug("closing jackpot stream failed")
		}
	}()

	engineCfg := cfg.Engine
	r.mu.Lock()
	engineCfg.Target = r.target
	engine := NewEngine(engineCfg, sessions.Spinner(s), r.deps.Events, r.deps.Clock, r.deps.Log)
	r.engine = engine
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.engine = nil
		r.mu.Unlock()
	}()

	if r.stopping() {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	engineDone := make(chan struct{})
	g.Go(func() error {
		defer close(engineDone)
		return engine.Run(gctx, stream.Updates())
	})
	g.Go(func() error {
		select {
		case <-engineDone:
			return nil
		case <-gctx.Done():
			return nil
		case <-r.stop:
			engine.Stop()
			return nil
		case <-s.Lost():
			engine.Stop()
			return markReported(fmt.Errorf("%w: %v", domain.ErrSessionLost, s.LostErr()))
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if r.stopping() {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// IsFatal reports errors that a restart cannot fix without user action.
func IsFatal(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidCredentials,
		domain.ErrCredentialNotSet,
		domain.ErrDecryption,
		domain.ErrEncryption,
		domain.ErrBrowserUnavailable,
		domain.ErrSessionActive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
