package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type SpinMode string

const (
	SpinModeAPI   SpinMode = "api"
	SpinModeClick SpinMode = "click"
)

const defaultSpinTimeout = 15 * time.Second

// SessionConfig describes one browser session. Launch attempts after the
// first drop the persistent profile directory.
type SessionConfig struct {
	AccountID      domain.AccountID
	Event          domain.EventConfig
	Launch         ports.LaunchOptions
	LaunchAttempts int
	RestoreCookies bool
	SpinMode       SpinMode
	SpinTimeout    time.Duration
}

// Session is one live browser context owned by a SessionManager.
type Session struct {
	id        domain.SessionID
	cfg       SessionConfig
	page      ports.Page
	createdAt time.Time

	mu    sync.Mutex
	state domain.AuthState

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	lost    chan struct{}
	lostErr error
}

func (s *Session) ID() domain.SessionID {
	return s.id
}

func (s *Session) AccountID() domain.AccountID {
	return s.cfg.AccountID
}

func (s *Session) Event() domain.EventConfig {
	return s.cfg.Event
}

// Page exposes the browser boundary to the login handler and monitor.
func (s *Session) Page() ports.Page {
	return s.page
}

func (s *Session) State() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state domain.AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.AuthStateClosed {
		return
	}
	s.state = state
}

func (s *Session) Info() domain.SessionInfo {
	return domain.SessionInfo{
		ID:        s.id,
		AccountID: s.cfg.AccountID,
		State:     s.State(),
		CreatedAt: s.createdAt,
	}
}

// Lost is closed when the browser went away without Close being called.
func (s *Session) Lost() <-chan struct{} {
	return s.lost
}

func (s *Session) LostErr() error {
	select {
	case <-s.lost:
		return s.lostErr
	default:
		return nil
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// SessionManager owns browser sessions, at most one per account.
type SessionManager struct {
	browser ports.Browser
	cookies ports.CookieStore
	events  ports.EventPublisher
	clock   ports.Clock
	log     logrus.FieldLogger
	newID   func() string

	mu     sync.Mutex
	active map[domain.AccountID]*Session
}

func NewSessionManager(browser ports.Browser, cookies ports.CookieStore, events ports.EventPublisher, clock ports.Clock, log logrus.FieldLogger) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SessionManager{
		browser: browser,
		cookies: cookies,
		events:  events,
		clock:   clock,
		log:     orDiscard(log),
		newID:   uuid.NewString,
		active:  make(map[domain.AccountID]*Session),
	}
}

// Open launches a browser, restores saved cookies when asked and loads the
// event page. The returned session must be released with Close.
func (m *SessionManager) Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.LaunchAttempts < 1 {
		cfg.LaunchAttempts = 1
	}
	if cfg.SpinMode == "" {
		cfg.SpinMode = SpinModeAPI
	}
	if cfg.SpinTimeout <= 0 {
		cfg.SpinTimeout = defaultSpinTimeout
	}

	m.mu.Lock()
	if _, exists := m.active[cfg.AccountID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionActive, cfg.AccountID)
	}
	// Reserve the slot so concurrent opens for the same account fail fast.
	m.active[cfg.AccountID] = nil
	m.mu.Unlock()

	rep := newReporter(m.events, m.clock, cfg.AccountID)
	log := m.log.WithField("account", cfg.AccountID)

	page, err := m.launch(ctx, cfg, rep, log)
	if err != nil {
		m.release(cfg.AccountID, nil)
		rep.fail(domain.CategorySession, "Browser unavailable: %v", err)
		return nil, markReported(err)
	}

	s := &Session{
		id:        domain.SessionID(m.newID()),
		cfg:       cfg,
		page:      page,
		createdAt: m.clock.Now(),
		state:     domain.AuthStateUnauthenticated,
		closed:    make(chan struct{}),
		lost:      make(chan struct{}),
	}

	m.mu.Lock()
	m.active[cfg.AccountID] = s
	m.mu.Unlock()

	go m.watch(s, rep, log)

	if cfg.RestoreCookies {
		m.restoreCookies(ctx, s, rep, log)
	}

	if err := page.Navigate(ctx, cfg.Event.BaseURL); err != nil {
		closeErr := m.Close(context.WithoutCancel(ctx), s)
		return nil, errors.Join(fmt.Errorf("open %s: %w", cfg.Event.BaseURL, err), closeErr)
	}

	log.WithField("session", s.id).Info("browser session opened")
	rep.info(domain.CategorySession, "Browser session opened for %s", cfg.Event.BaseURL)
	return s, nil
}

func (m *SessionManager) launch(ctx context.Context, cfg SessionConfig, rep reporter, log logrus.FieldLogger) (ports.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.LaunchAttempts; attempt++ {
		opts := cfg.Launch
		if attempt > 1 {
			opts.UserDataDir = ""
		}

		page, err := m.browser.Launch(ctx, opts)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(err).WithField("attempt", attempt).Warn("browser launch failed")
		if attempt < cfg.LaunchAttempts {
			rep.warn(domain.CategorySession, "Browser launch failed (attempt %d/%d), retrying with a fresh profile", attempt, cfg.LaunchAttempts)
		}
	}

	if errors.Is(lastErr, domain.ErrBrowserUnavailable) {
		return nil, fmt.Errorf("launch browser after %d attempts: %w", cfg.LaunchAttempts, lastErr)
	}
	return nil, fmt.Errorf("launch browser after %d attempts: %w: %w", cfg.LaunchAttempts, domain.ErrBrowserUnavailable, lastErr)
}

func (m *SessionManager) restoreCookies(ctx context.Context, s *Session, rep reporter, log logrus.FieldLogger) {
	if m.cookies == nil {
		return
	}
	cookies, err := m.cookies.LoadCookies(ctx, s.cfg.AccountID)
	if err != nil {
		log.WithError(err).Warn("saved cookies unreadable, falling back to login")
		rep.warn(domain.CategorySession, "Saved session could not be restored, logging in again")
		return
	}
	if len(cookies) == 0 {
		return
	}
	if err := s.page.SetCookies(ctx, cookies); err != nil {
		log.WithError(err).Warn("restoring cookies failed, falling back to login")
		rep.warn(domain.CategorySession, "Saved session could not be restored, logging in again")
		return
	}
	log.WithField("cookies", len(cookies)).Debug("restored session cookies")
}

func (m *SessionManager) watch(s *Session, rep reporter, log logrus.FieldLogger) {
	select {
	case <-s.closed:
		return
	case <-s.page.Done():
	}

	select {
	case <-s.closed:
		return
	default:
	}

	cause := s.page.Err()
	if cause == nil {
		cause = domain.ErrSessionLost
	}
	s.lostErr = cause
	s.setState(domain.AuthStateClosed)

	log.WithError(cause).Error("browser session lost")
	rep.fail(domain.CategorySession, "Browser session lost: %v", cause)
	rep.publish(domain.SessionLost{AccountID: s.cfg.AccountID, SessionID: s.id, Reason: cause.Error(), At: m.clock.Now()})
	close(s.lost)

	// Release the protocol connection even though the browser is gone.
	_ = m.Close(context.Background(), s)
}

// Close tears the session down. It is idempotent and safe after a crash.
func (m *SessionManager) Close(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = domain.AuthStateClosed
		s.mu.Unlock()
		close(s.closed)

		s.closeErr = s.page.Close(ctx)
		m.release(s.cfg.AccountID, s)
		m.log.WithFields(logrus.Fields{"account": s.cfg.AccountID, "session": s.id}).Debug("browser session closed")
	})
	return s.closeErr
}

func (m *SessionManager) release(id domain.AccountID, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[id]; ok && current == s {
		delete(m.active, id)
	}
}

// Active returns the open session of an account, if any.
func (m *SessionManager) Active(id domain.AccountID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[id]
	return s, ok && s != nil
}

// SaveCookies persists the session cookies so the next Open can skip login.
func (m *SessionManager) SaveCookies(ctx context.Context, s *Session) error {
	if m.cookies == nil {
		return nil
	}
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	cookies, err := s.page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read session cookies: %w", err)
	}
	if err := m.cookies.SaveCookies(ctx, s.cfg.AccountID, cookies); err != nil {
		return fmt.Errorf("save session cookies: %w", err)
	}
	return nil
}

// LookupUser reads the logged-in player's profile through the page.
func (m *SessionManager) LookupUser(ctx context.Context, s *Session) (domain.UserInfo, error) {
	if s.isClosed() {
		return domain.UserInfo{}, domain.ErrSessionClosed
	}
	resp, err := s.page.Fetch(ctx, ports.FetchRequest{
		Method:  http.MethodGet,
		URL:     s.cfg.Event.UserURL(),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("fetch user info: %w", err)
	}
	if !resp.OK() {
		return domain.UserInfo{}, fmt.Errorf("fetch user info: HTTP %d", resp.Status)
	}

	user := gjson.GetBytes(resp.Body, "payload.user")
	if !user.IsObject() {
		return domain.UserInfo{}, errors.New("fetch user info: response has no user")
	}
	info := domain.UserInfo{
		AccountID: s.cfg.AccountID,
		UID:       user.Get("uid").String(),
		Nickname:  user.Get("nickname").String(),
		FC:        user.Get("fc").Int(),
		MC:        user.Get("mc").Int(),
		FreeSpin:  user.Get("free_spin").Int(),
	}

	rep := newReporter(m.events, m.clock, s.cfg.AccountID)
	rep.publish(info)
	rep.info(domain.CategoryUser, "Logged in as %s (FC %s, free spins %d)", info.Nickname, formatAmount(info.FC), info.FreeSpin)
	return info, nil
}

// ExecuteAction performs one spin in the session and classifies the result.
// It never returns an error: every failure is a SpinOutcome.
func (m *SessionManager) ExecuteAction(ctx context.Context, s *Session, req domain.SpinRequest) domain.SpinOutcome {
	outcome := domain.SpinOutcome{AccountID: req.AccountID, CorrelationID: req.CorrelationID}
	if outcome.AccountID == "" {
		outcome.AccountID = s.cfg.AccountID
	}
	finish := func(result domain.SpinResult, detail string) domain.SpinOutcome {
		outcome.Result = result
		outcome.Detail = detail
		outcome.CompletedAt = m.clock.Now()
		return outcome
	}

	if s.isClosed() {
		return finish(domain.SpinFailed, domain.ErrSessionClosed.Error())
	}

	actionCtx, cancel := context.WithTimeout(ctx, s.cfg.SpinTimeout)
	defer cancel()

	switch s.cfg.SpinMode {
	case SpinModeClick:
		if err := s.page.Click(actionCtx, s.cfg.Event.SpinSelector(req.Tier)); err != nil {
			return finish(classifyActionError(actionCtx, err), err.Error())
		}
		return finish(domain.SpinSucceeded, "")
	default:
		body, err := spinBody(s.cfg.Event, req.Tier)
		if err != nil {
			return finish(domain.SpinFailed, err.Error())
		}
		resp, err := s.page.Fetch(actionCtx, ports.FetchRequest{
			Method: http.MethodPost,
			URL:    s.cfg.Event.SpinURL(),
			Headers: map[string]string{
				"Accept":       "application/json",
				"Content-Type": "application/json",
			},
			Body: body,
		})
		if err != nil {
			return finish(classifyActionError(actionCtx, err), err.Error())
		}
		if !resp.OK() {
			return finish(domain.SpinFailed, fmt.Sprintf("HTTP %d", resp.Status))
		}

		result, rewards, jackpot, detail := parseSpinResponse(resp.Body)
		outcome.Rewards = rewards
		outcome.NewJackpotValue = jackpot
		return finish(result, detail)
	}
}

func classifyActionError(ctx context.Context, err error) domain.SpinResult {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.SpinTimedOut
	}
	return domain.SpinFailed
}

func spinBody(event domain.EventConfig, tier domain.SpinTier) ([]byte, error) {
	payload := make(map[string]any, len(event.Params)+2)
	for k, v := range event.Params {
		payload[k] = v
	}
	payload["spin_type"] = int(tier)
	payload["payment_type"] = 1

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode spin request: %w", err)
	}
	return body, nil
}

// parseSpinResponse reads {status, error_code, payload{spin_results|receive_reward_infos, jackpot_value}}.
func parseSpinResponse(body []byte) (domain.SpinResult, []string, *int64, string) {
	if !gjson.ValidBytes(body) {
		return domain.SpinFailed, nil, nil, "malformed spin response"
	}
	doc := gjson.ParseBytes(body)

	errorCode := doc.Get("error_code").String()
	payload := doc.Get("payload")
	if doc.Get("status").String() != "successful" || errorCode != "" || !payload.IsObject() {
		if errorCode == "" {
			errorCode = "Unknown error"
		}
		return domain.SpinFailed, nil, nil, errorCode
	}

	results := payload.Get("spin_results")
	if !results.Exists() {
		results = payload.Get("receive_reward_infos")
	}
	var rewards []string
	for _, item := range results.Array() {
		name := item.Get("reward_name").String()
		if name == "" {
			name = item.Get("item_name").String()
		}
		if name != "" {
			rewards = append(rewards, name)
		}
	}

	var jackpot *int64
	if v := payload.Get("jackpot_value"); v.Exists() {
		if amount, ok := jackpotAmount(v); ok {
			jackpot = &amount
		}
	}
	return domain.SpinSucceeded, rewards, jackpot, ""
}

// Spinner binds ExecuteAction to one session.
func (m *SessionManager) Spinner(s *Session) Spinner {
	return SpinnerFunc(func(ctx context.Context, req domain.SpinRequest) domain.SpinOutcome {
		return m.ExecuteAction(ctx, s, req)
	})
}
