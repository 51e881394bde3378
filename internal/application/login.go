package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	defaultLoginTimeout  = 30 * time.Second
	defaultLoginPoll     = 500 * time.Millisecond
	defaultCaptchaPoll   = 2 * time.Second
	defaultLoginAttempts = 3
)

// CredentialSource yields the credential for one login. It is called once
// per Authenticate.
type CredentialSource func(ctx context.Context) (domain.Credential, error)

func StaticCredential(cred domain.Credential) CredentialSource {
	return func(context.Context) (domain.Credential, error) {
		return cred, nil
	}
}

type LoginConfig struct {
	// Timeout bounds how long a submitted form may take to settle.
	Timeout      time.Duration
	PollInterval time.Duration
	CaptchaPoll  time.Duration
	// Retries bounds resubmissions after network-level failures.
	Retries int
}

type LoginHandler struct {
	cfg        LoginConfig
	events     ports.EventPublisher
	clock      ports.Clock
	log        logrus.FieldLogger
	newBackOff func() backoff.BackOff
}

func NewLoginHandler(cfg LoginConfig, events ports.EventPublisher, clock ports.Clock, log logrus.FieldLogger) *LoginHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLoginTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultLoginPoll
	}
	if cfg.CaptchaPoll <= 0 {
		cfg.CaptchaPoll = defaultCaptchaPoll
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaultLoginAttempts
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &LoginHandler{
		cfg:    cfg,
		events: events,
		clock:  clock,
		log:    orDiscard(log),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
}

// Authenticate reads the credential once and logs the session in. A captcha
// pauses the flow until the challenge disappears, then the page is classified
// again without resubmitting the form.
func (h *LoginHandler) Authenticate(ctx context.Context, s *Session, source CredentialSource) (domain.AuthResult, error) {
	rep := newReporter(h.events, h.clock, s.AccountID())

	cred, err := source(ctx)
	if err != nil {
		rep.fail(domain.CategoryLogin, "Credential unavailable: %v", err)
		return "", markReported(fmt.Errorf("read credential: %w", err))
	}

	result, err := h.Login(ctx, s, cred)
	if err != nil {
		return result, err
	}

	if result == domain.AuthCaptchaRequired {
		rep.warn(domain.CategoryLogin, "Captcha required, solve it in the browser window")
		if err := h.WaitForCaptchaCleared(ctx, s); err != nil {
			return result, err
		}
		rep.info(domain.CategoryLogin, "Captcha cleared, resuming login")
		result, err = h.classify(ctx, s, false)
		if err != nil {
			return result, err
		}
	}

	switch result {
	case domain.AuthSuccess:
		s.setState(domain.AuthStateAuthenticated)
		rep.success(domain.CategoryLogin, "Logged in as %s", cred.Username)
		return result, nil
	case domain.AuthInvalidCredentials:
		s.setState(domain.AuthStateUnauthenticated)
		rep.fail(domain.CategoryLogin, "Login rejected: invalid username or password")
		return result, markReported(domain.ErrInvalidCredentials)
	case domain.AuthCaptchaRequired:
		s.setState(domain.AuthStateUnauthenticated)
		rep.fail(domain.CategoryLogin, "Captcha still pending after it was cleared")
		return domain.AuthTimeout, markReported(domain.ErrLoginTimeout)
	default:
		s.setState(domain.AuthStateUnauthenticated)
		rep.fail(domain.CategoryLogin, "Login timed out")
		return result, markReported(domain.ErrLoginTimeout)
	}
}

// Login fills and submits the login form, then classifies the page. The
// returned error is only set when ctx ends or the session is gone.
func (h *LoginHandler) Login(ctx context.Context, s *Session, cred domain.Credential) (domain.AuthResult, error) {
	if s.isClosed() {
		return "", domain.ErrSessionClosed
	}
	if !cred.Valid() {
		return domain.AuthInvalidCredentials, nil
	}

	page := s.Page()
	sel := s.Event().Selectors
	log := h.log.WithFields(logrus.Fields{"account": s.AccountID(), "session": s.ID()})
	rep := newReporter(h.events, h.clock, s.AccountID())

	s.setState(domain.AuthStateAuthenticating)

	if loggedIn, _ := visible(ctx, page, sel.LogoutButton); loggedIn {
		log.Debug("session already authenticated")
		rep.info(domain.CategoryLogin, "Session restored, login skipped")
		return domain.AuthSuccess, nil
	}

	rep.info(domain.CategoryLogin, "Logging in as %s", cred.Username)

	attempt := 0
	submit := func() error {
		attempt++
		if s.isClosed() {
			return backoff.Permanent(domain.ErrSessionClosed)
		}
		if err := h.submit(ctx, page, sel, cred); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			return err
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithError(err).WithField("attempt", attempt).Warn("login submit failed")
		rep.warn(domain.CategoryLogin, "Login attempt %d failed, retrying in %s", attempt, wait.Round(time.Second))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(h.newBackOff(), uint64(h.cfg.Retries-1)), ctx)
	if err := backoff.RetryNotify(submit, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, domain.ErrSessionClosed) {
			return "", err
		}
		log.WithError(err).Warn("login submit gave up")
		return domain.AuthTimeout, nil
	}

	return h.classify(ctx, s, true)
}

func (h *LoginHandler) submit(ctx context.Context, page ports.Page, sel domain.Selectors, cred domain.Credential) error {
	if ok, err := visible(ctx, page, sel.UsernameInput); err != nil {
		return err
	} else if !ok && sel.LoginButton != "" {
		if err := page.Click(ctx, sel.LoginButton); err != nil {
			return fmt.Errorf("open login form: %w", err)
		}
	}
	if err := page.Fill(ctx, sel.UsernameInput, cred.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := page.Fill(ctx, sel.PasswordInput, cred.Secret); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := page.Click(ctx, sel.SubmitButton); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	return nil
}

// classify polls the page until it shows a captcha, an error message or a
// logged-in header. Without a verdict before the timeout the result is
// AuthTimeout.
func (h *LoginHandler) classify(ctx context.Context, s *Session, allowCaptcha bool) (domain.AuthResult, error) {
	page := s.Page()
	sel := s.Event().Selectors
	deadline := h.clock.Now().Add(h.cfg.Timeout)

	for {
		if s.isClosed() {
			return "", domain.ErrSessionClosed
		}

		if ok, _ := visible(ctx, page, sel.Captcha); ok && allowCaptcha {
			return domain.AuthCaptchaRequired, nil
		}
		if ok, _ := visible(ctx, page, sel.LoginError); ok {
			return domain.AuthInvalidCredentials, nil
		}
		if ok, _ := visible(ctx, page, sel.LogoutButton); ok {
			return domain.AuthSuccess, nil
		}
		if h.backOnEventPage(ctx, page, s.Event(), sel) {
			return domain.AuthSuccess, nil
		}

		if !h.clock.Now().Before(deadline) {
			return domain.AuthTimeout, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.closed:
			return "", domain.ErrSessionClosed
		case <-h.clock.After(h.cfg.PollInterval):
		}
	}
}

// backOnEventPage reports a redirect from the login page back to the event
// with the login button gone.
func (h *LoginHandler) backOnEventPage(ctx context.Context, page ports.Page, event domain.EventConfig, sel domain.Selectors) bool {
	current, err := page.URL(ctx)
	if err != nil || !strings.HasPrefix(current, strings.TrimRight(event.BaseURL, "/")) || strings.Contains(current, "login") {
		return false
	}
	if sel.LoginButton == "" {
		return false
	}
	login, err := visible(ctx, page, sel.LoginButton)
	return err == nil && !login
}

// WaitForCaptchaCleared blocks until the captcha element is gone. It has no
// upper bound other than ctx.
func (h *LoginHandler) WaitForCaptchaCleared(ctx context.Context, s *Session) error {
	page := s.Page()
	selector := s.Event().Selectors.Captcha
	for {
		present, err := visible(ctx, page, selector)
		if err != nil {
			h.log.WithError(err).Debug("captcha probe failed")
		} else if !present {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return domain.ErrSessionClosed
		case <-s.lost:
			return domain.ErrSessionLost
		case <-h.clock.After(h.cfg.CaptchaPoll):
		}
	}
}

func visible(ctx context.Context, page ports.Page, selector string) (bool, error) {
	if selector == "" {
		return false, nil
	}
	return page.Visible(ctx, selector)
}
