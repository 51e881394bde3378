package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
)

type fakeTimer struct {
	at time.Time
	ch chan time.Time
}

// fakeClock only moves when Advance is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.October, 18, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.timers = append(c.timers, fakeTimer{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	pending := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.at.After(c.now) {
			timer.ch <- c.now
			continue
		}
		pending = append(pending, timer)
	}
	c.timers = pending
}

func (c *fakeClock) Timers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// recorder collects everything published on the bus.
type recorder struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (r *recorder) Publish(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) Messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.msgs...)
}

func (r *recorder) Activities(severity domain.Severity) []domain.ActivityEvent {
	var out []domain.ActivityEvent
	for _, msg := range r.Messages() {
		if ev, ok := msg.(domain.ActivityEvent); ok && (severity == "" || ev.Severity == severity) {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) Transitions() []domain.EngineState {
	var out []domain.EngineState
	for _, msg := range r.Messages() {
		if tr, ok := msg.(domain.EngineTransition); ok {
			out = append(out, tr.To)
		}
	}
	return out
}

type fakeSubscription struct {
	frames    chan domain.Frame
	err       error
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{frames: make(chan domain.Frame, 16), closed: make(chan struct{})}
}

func (s *fakeSubscription) Frames() <-chan domain.Frame {
	return s.frames
}

func (s *fakeSubscription) Err() error {
	return s.err
}

func (s *fakeSubscription) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// End closes the frame channel the way a dropped socket would.
func (s *fakeSubscription) End(err error) {
	s.err = err
	close(s.frames)
}

type frameSource struct {
	sub *fakeSubscription
	err error
}

func (f frameSource) Subscribe(context.Context) (ports.FrameSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

// fakePage scripts the browser boundary. Visible answers come from the
// visible map, or from visibleFn when set.
type fakePage struct {
	mu         sync.Mutex
	url        string
	visible    map[string]bool
	visibleFn  func(selector string) (bool, error)
	clicks     []string
	fills      map[string]string
	clickErr   error
	fillErrs   int
	fetch      func(ctx context.Context, req ports.FetchRequest) (ports.FetchResponse, error)
	requests   []ports.FetchRequest
	cookies    []ports.Cookie
	setCookies []ports.Cookie
	navigated  []string
	sub        *fakeSubscription
	onSubmit   func(p *fakePage)
	submit     string

	done      chan struct{}
	doneOnce  sync.Once
	crashErr  error
	closes    int
	closeHook func()
}

func newFakePage() *fakePage {
	return &fakePage{
		visible: map[string]bool{},
		fills:   map[string]string{},
		sub:     newFakeSubscription(),
		done:    make(chan struct{}),
	}
}

func (p *fakePage) Subscribe(context.Context) (ports.FrameSubscription, error) {
	return p.sub, nil
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) SetVisible(selector string, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible[selector] = visible
}

func (p *fakePage) Visible(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	fn := p.visibleFn
	visible := p.visible[selector]
	p.mu.Unlock()
	if fn != nil {
		return fn(selector)
	}
	return visible, nil
}

func (p *fakePage) Click(_ context.Context, selector string) error {
	p.mu.Lock()
	if p.clickErr != nil {
		err := p.clickErr
		p.mu.Unlock()
		return err
	}
	p.clicks = append(p.clicks, selector)
	hook := p.onSubmit
	isSubmit := selector == p.submit
	p.mu.Unlock()
	if hook != nil && isSubmit {
		hook(p)
	}
	return nil
}

func (p *fakePage) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *fakePage) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fillErrs > 0 {
		p.fillErrs--
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	p.fills[selector] = value
	return nil
}

func (p *fakePage) Fetch(ctx context.Context, req ports.FetchRequest) (ports.FetchResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.fetch
	p.mu.Unlock()
	if fn == nil {
		return ports.FetchResponse{Status: 404}, nil
	}
	return fn(ctx, req)
}

func (p *fakePage) Cookies(context.Context) ([]ports.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cookies, nil
}

func (p *fakePage) SetCookies(_ context.Context, cookies []ports.Cookie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setCookies = cookies
	return nil
}

func (p *fakePage) Done() <-chan struct{} {
	return p.done
}

func (p *fakePage) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crashErr
}

// Crash simulates the browser process dying.
func (p *fakePage) Crash(err error) {
	p.mu.Lock()
	p.crashErr = err
	p.mu.Unlock()
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *fakePage) Close(context.Context) error {
	p.mu.Lock()
	p.closes++
	hook := p.closeHook
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	p.doneOnce.Do(func() { close(p.done) })
	return nil
}

func (p *fakePage) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

type fakeBrowser struct {
	mu       sync.Mutex
	pages    []*fakePage
	failures int
	err      error
	launches []ports.LaunchOptions
}

func (b *fakeBrowser) Launch(ctx context.Context, opts ports.LaunchOptions) (ports.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.launches = append(b.launches, opts)
	if b.failures > 0 {
		b.failures--
		return nil, b.err
	}
	if len(b.pages) == 0 {
		return newFakePage(), nil
	}
	page := b.pages[0]
	b.pages = b.pages[1:]
	return page, nil
}

func (b *fakeBrowser) Launches() []ports.LaunchOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.LaunchOptions(nil), b.launches...)
}

type memoryCookies struct {
	mu    sync.Mutex
	saved map[domain.AccountID][]ports.Cookie
	err   error
}

func (m *memoryCookies) SaveCookies(_ context.Context, id domain.AccountID, cookies []ports.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[domain.AccountID][]ports.Cookie{}
	}
	m.saved[id] = cookies
	return nil
}

func (m *memoryCookies) LoadCookies(_ context.Context, id domain.AccountID) ([]ports.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.saved[id], nil
}

func (m *memoryCookies) ClearCookies(_ context.Context, id domain.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	return nil
}

func testEvent() domain.EventConfig {
	return domain.EventConfig{
		Name:         "bilac",
		BaseURL:      "https://bilac.fconline.garena.vn",
		UserEndpoint: "api/user/get",
		SpinEndpoint: "api/user/spin",
		Params:       map[string]any{"event": "bilac"},
		SpinActions:  []string{"Spin 1", "Spin 10", "Spin 100"},
		Selectors: domain.Selectors{
			LoginButton:   "a.login",
			LogoutButton:  "a.logout",
			UsernameInput: "input.user",
			PasswordInput: "input.pass",
			SubmitButton:  "button.submit",
			Captcha:       ".captcha",
			LoginError:    ".error",
			SpinAction:    "a.btn-spin--%d",
		},
	}
}
