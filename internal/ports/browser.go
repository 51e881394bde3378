package ports

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
)

type LaunchOptions struct {
	ExecPath     string
	Headless     bool
	UserDataDir  string
	UserAgent    string
	Locale       string
	Timezone     string
	WindowWidth  int
	WindowHeight int
	// StealthScripts run in every new document before any page script.
	StealthScripts []string
	Flags          map[string]any
}

// Browser launches automated browser contexts.
type Browser interface {
	Launch(ctx context.Context, opts LaunchOptions) (Page, error)
}

// Page is the capability surface the core needs from one browser tab.
type Page interface {
	FrameSource

	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error

	// Done is closed when the browser process exits or disconnects.
	Done() <-chan struct{}
	// Err reports why Done was closed.
	Err() error
	Close(ctx context.Context) error
}

// FrameSource delivers live push-channel frames.
type FrameSource interface {
	Subscribe(ctx context.Context) (FrameSubscription, error)
}

type FrameSubscription interface {
	// Frames is closed when the channel ends.
	Frames() <-chan domain.Frame
	// Err reports why Frames was closed; nil after Close.
	Err() error
	Close() error
}

type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

type FetchResponse struct {
	Status int
	Body   []byte
}

func (r FetchResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}
