// Package activity prints the activity stream as colored log lines.
package activity

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type Tag string

const (
	TagDefault Tag = "DEFAULT"
	TagInfo    Tag = "INFO"
	TagSuccess Tag = "SUCCESS"
	TagError   Tag = "ERROR"
	TagWarning Tag = "WARNING"
	TagJackpot Tag = "JACKPOT"
	TagReward  Tag = "REWARD"
	TagWinner  Tag = "WINNER"
)

var tagColors = map[Tag]lipgloss.Color{
	TagDefault: lipgloss.Color("#d1d5db"),
	TagInfo:    lipgloss.Color("#38bdf8"),
	TagSuccess: lipgloss.Color("#22c55e"),
	TagError:   lipgloss.Color("#ef4444"),
	TagWarning: lipgloss.Color("#f59e0b"),
	TagJackpot: lipgloss.Color("#f97316"),
	TagReward:  lipgloss.Color("#a855f7"),
	TagWinner:  lipgloss.Color("#fbbf24"),
}

// TagFor picks the display tag of an event. Failures always win over the
// category color.
func TagFor(ev domain.ActivityEvent) Tag {
	switch ev.Severity {
	case domain.SeverityError:
		return TagError
	case domain.SeverityWarning:
		return TagWarning
	case domain.SeverityDebug:
		return TagDefault
	}

	switch ev.Category {
	case domain.CategoryJackpot:
		return TagJackpot
	case domain.CategoryReward:
		return TagReward
	case domain.CategoryWinner:
		if ev.Severity == domain.SeveritySuccess {
			return TagWinner
		}
		return TagInfo
	}

	if ev.Severity == domain.SeveritySuccess {
		return TagSuccess
	}
	return TagInfo
}

type Options struct {
	ShowAccount bool
	ShowDebug   bool
	TimeFormat  string
}

// Renderer writes one line per activity event. It is safe to use as a bus
// sink from a single goroutine and serializes concurrent writers.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	opts    Options
	stamp   lipgloss.Style
	account lipgloss.Style
	styles  map[Tag]lipgloss.Style
}

func New(out io.Writer, opts Options) *Renderer {
	if opts.TimeFormat == "" {
		opts.TimeFormat = time.TimeOnly
	}
	r := lipgloss.NewRenderer(out)
	styles := make(map[Tag]lipgloss.Style, len(tagColors))
	for tag, color := range tagColors {
		styles[tag] = r.NewStyle().Foreground(color)
	}
	styles[TagWinner] = styles[TagWinner].Bold(true)
	styles[TagJackpot] = styles[TagJackpot].Bold(true)

	return &Renderer{
		out:     out,
		opts:    opts,
		stamp:   r.NewStyle().Foreground(lipgloss.Color("241")),
		account: r.NewStyle().Foreground(lipgloss.Color("39")),
		styles:  styles,
	}
}

func (r *Renderer) Line(ev domain.ActivityEvent) string {
	line := r.stamp.Render("[" + ev.Timestamp.Format(r.opts.TimeFormat) + "]")
	if r.opts.ShowAccount && ev.AccountID != "" {
		line += " " + r.account.Render(string(ev.AccountID))
	}
	return line + " " + r.styles[TagFor(ev)].Render(ev.Message)
}

func (r *Renderer) Handle(_ context.Context, msg domain.Message) error {
	ev, ok := msg.(domain.ActivityEvent)
	if !ok {
		return nil
	}
	if ev.Severity == domain.SeverityDebug && !r.opts.ShowDebug {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintln(r.out, r.Line(ev)); err != nil {
		return fmt.Errorf("write activity line: %w", err)
	}
	return nil
}
