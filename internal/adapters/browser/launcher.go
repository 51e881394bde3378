package browser

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	defaultWindowWidth  = 1366
	defaultWindowHeight = 768
)

// Launcher starts Chrome through the DevTools protocol.
type Launcher struct {
	log logrus.FieldLogger
}

var _ ports.Browser = (*Launcher)(nil)

func NewLauncher(log logrus.FieldLogger) *Launcher {
	return &Launcher{log: log}
}

func (l *Launcher) Launch(ctx context.Context, opts ports.LaunchOptions) (ports.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.log.Debugf), chromedp.WithErrorf(l.log.Debugf))

	p := &Page{
		log:           l.log,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		done:          make(chan struct{}),
		sockets:       map[network.RequestID]*socket{},
	}

	chromedp.ListenTarget(browserCtx, p.onTargetEvent)

	startCtx, cancelStart := context.WithCancel(browserCtx)
	stop := context.AfterFunc(ctx, cancelStart)
	err := chromedp.Run(startCtx, setupActions(opts)...)
	stop()
	cancelStart()
	if err != nil {
		_ = p.Close(context.Background())
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrBrowserUnavailable, err)
	}

	go p.watch()
	return p, nil
}

func allocatorOptions(opts ports.LaunchOptions) []chromedp.ExecAllocatorOption {
	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = defaultWindowWidth, defaultWindowHeight
	}

	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(width, height),
	)
	if !opts.Headless {
		out = append(out, chromedp.Flag("hide-scrollbars", false), chromedp.Flag("mute-audio", false))
	}
	if opts.Locale != "" {
		out = append(out, chromedp.Flag("lang", opts.Locale))
	}
	if opts.UserAgent != "" {
		out = append(out, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		out = append(out, chromedp.UserDataDir(opts.UserDataDir))
	}
	for name, value := range opts.Flags {
		out = append(out, chromedp.Flag(name, value))
	}
	return out
}

// setupActions prepares the first tab before any site script can run.
func setupActions(opts ports.LaunchOptions) []chromedp.Action {
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for i, script := range opts.StealthScripts {
				if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
					return fmt.Errorf("install stealth script %d: %w", i, err)
				}
			}
			return nil
		}),
	}
	if opts.UserAgent != "" {
		override := emulation.SetUserAgentOverride(opts.UserAgent)
		if opts.Locale != "" {
			override = override.WithAcceptLanguage(acceptLanguage(opts.Locale))
		}
		actions = append(actions, override)
	}
	if opts.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(strings.ReplaceAll(opts.Locale, "-", "_")))
	}
	if opts.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(opts.Timezone))
	}
	return actions
}

func acceptLanguage(locale string) string {
	primary, _, _ := strings.Cut(locale, "-")
	if primary == locale {
		return locale
	}
	return locale + "," + primary + ";q=0.9,en;q=0.8"
}

// Page is one Chrome tab plus the process that hosts it.
type Page struct {
	log           logrus.FieldLogger
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	done      chan struct{}
	doneOnce  sync.Once
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error

	mu       sync.Mutex
	err      error
	sockets  map[network.RequestID]*socket
	subs     []*frameQueue
	arrivals atomic.Uint64
	marks    atomic.Uint64
}

var _ ports.Page = (*Page)(nil)

func (p *Page) Done() <-chan struct{} {
	return p.done
}

func (p *Page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close detaches every frame listener before the browser process is torn
// down. Repeated calls, and calls after a crash, return the first result.
func (p *Page) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.closing.Store(true)

		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()
		for _, sub := range subs {
			_ = sub.Close()
		}

		closed := make(chan error, 1)
		go func() {
			closed <- chromedp.Cancel(p.browserCtx)
		}()
		select {
		case err := <-closed:
			if err != nil && !isBenignCloseError(err) {
				p.closeErr = fmt.Errorf("close browser: %w", err)
			}
		case <-ctx.Done():
			p.closeErr = ctx.Err()
		}
		p.browserCancel()
		p.allocCancel()
		p.markDone(domain.ErrSessionClosed)
	})
	return p.closeErr
}

func isBenignCloseError(err error) bool {
	return err == context.Canceled || strings.Contains(err.Error(), "context canceled")
}

func (p *Page) watch() {
	<-p.browserCtx.Done()
	if p.closing.Load() {
		return
	}
	p.markDone(fmt.Errorf("%w: browser connection lost", domain.ErrSessionLost))
}

func (p *Page) markDone(err error) {
	p.doneOnce.Do(func() {
		p.mu.Lock()
		p.err = err
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()

		for _, sub := range subs {
			sub.end(fmt.Errorf("%w: %w", domain.ErrChannelClosed, err))
		}
		close(p.done)
	})
}

func (p *Page) onTargetEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventWebSocketCreated:
		p.mu.Lock()
		p.sockets[e.RequestID] = &socket{url: e.URL}
		p.mu.Unlock()
	case *network.EventWebSocketFrameReceived:
		if e.Response == nil {
			return
		}
		frame := domain.Frame{
			Payload:  e.Response.PayloadData,
			Sequence: p.arrivals.Add(1),
		}
		if e.Timestamp != nil {
			frame.ReceivedAt = e.Timestamp.Time()
		}
		p.mu.Lock()
		if s, ok := p.sockets[e.RequestID]; ok {
			s.delivered = true
			frame.Source = s.url
		}
		subs := append([]*frameQueue(nil), p.subs...)
		p.mu.Unlock()
		for _, sub := range subs {
			sub.push(frame)
		}
	case *network.EventWebSocketClosed:
		p.mu.Lock()
		closed, ok := p.sockets[e.RequestID]
		delete(p.sockets, e.RequestID)
		var subs []*frameQueue
		if ok && closed.delivered && !p.anyDeliveringSocket() {
			subs = p.subs
			p.subs = nil
		}
		p.mu.Unlock()
		for _, sub := range subs {
			sub.end(fmt.Errorf("%w: socket %s closed", domain.ErrChannelClosed, closed.url))
		}
	case *inspector.EventTargetCrashed:
		go p.markDone(fmt.Errorf("%w: renderer crashed", domain.ErrSessionLost))
	case *inspector.EventDetached:
		if !p.closing.Load() {
			go p.markDone(fmt.Errorf("%w: detached: %s", domain.ErrSessionLost, e.Reason))
		}
	}
}

// socket tracks one page websocket. Only sockets that carried frames count
// as the push channel.
type socket struct {
	url       string
	delivered bool
}

// anyDeliveringSocket must be called with p.mu held.
func (p *Page) anyDeliveringSocket() bool {
	for _, s := range p.sockets {
		if s.delivered {
			return true
		}
	}
	return false
}

func (p *Page) Subscribe(ctx context.Context) (ports.FrameSubscription, error) {
	if err := p.alive(ctx); err != nil {
		return nil, err
	}

	var q *frameQueue
	q = newFrameQueue(func() { p.detach(q) })

	p.mu.Lock()
	p.subs = append(p.subs, q)
	p.mu.Unlock()

	return q, nil
}

func (p *Page) detach(q *frameQueue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subs {
		if sub == q {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *Page) URL(ctx context.Context) (string, error) {
	var location string
	err := p.run(ctx, chromedp.Location(&location))
	return location, err
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := p.run(ctx, chromedp.Evaluate(visibleScript(selector), &visible))
	return visible, err
}

func (p *Page) Click(ctx context.Context, selector string) error {
	css, err := p.resolve(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx,
		chromedp.WaitVisible(css, chromedp.ByQuery),
		chromedp.Click(css, chromedp.ByQuery),
	)
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	css, err := p.resolve(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx,
		chromedp.WaitVisible(css, chromedp.ByQuery),
		chromedp.Clear(css, chromedp.ByQuery),
		chromedp.SendKeys(css, value, chromedp.ByQuery),
	)
}

func (p *Page) Fetch(ctx context.Context, req ports.FetchRequest) (ports.FetchResponse, error) {
	method := req.Method
	if method == "" {
		method = "GET"
	}

	var result struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	err := p.run(ctx, chromedp.Evaluate(
		fetchScript(method, req.URL, req.Headers, req.Body),
		&result,
		awaitPromise,
	))
	if err != nil {
		return ports.FetchResponse{}, fmt.Errorf("fetch %s %s: %w", method, req.URL, err)
	}
	return ports.FetchResponse{Status: result.Status, Body: []byte(result.Body)}, nil
}

func (p *Page) Cookies(ctx context.Context) ([]ports.Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	cookies := make([]ports.Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		cookie := ports.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if !c.Session {
			cookie.Expires = c.Expires
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []ports.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: network.CookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			expires := cdpTime(c.Expires)
			param.Expires = &expires
		}
		params = append(params, param)
	}

	if err := p.run(ctx, network.SetCookies(params)); err != nil {
		return fmt.Errorf("restore cookies: %w", err)
	}
	return nil
}

// resolve turns a selector into plain CSS, tagging text-filtered matches.
func (p *Page) resolve(ctx context.Context, selector string) (string, error) {
	if _, _, ok := splitHasText(selector); !ok {
		return selector, nil
	}

	token := "t-" + strconv.FormatUint(p.marks.Add(1), 10)
	var found bool
	if err := p.run(ctx, chromedp.Evaluate(markScript(selector, token), &found)); err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return markerSelector(token), nil
}

// run executes actions on the tab while honouring both the caller's context
// and the lifetime of the browser.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := p.alive(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(p.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lost := p.alive(ctx); lost != nil {
		return lost
	}
	return err
}

func (p *Page) alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		if err := p.Err(); err != nil {
			return err
		}
		return domain.ErrSessionClosed
	default:
		return nil
	}
}

func awaitPromise(params *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
	return params.WithAwaitPromise(true)
}

func cdpTime(seconds float64) cdp.TimeSinceEpoch {
	whole, frac := math.Modf(seconds)
	return cdp.TimeSinceEpoch(time.Unix(int64(whole), int64(frac*float64(time.Second))))
}
