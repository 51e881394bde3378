package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags logins old enough that saved cookies have likely expired.
	StaleAfter time.Duration
	// EventTitles maps catalog names to display titles.
	EventTitles map[string]string
	// Jackpots holds the latest recorded special jackpot per account.
	Jackpots map[domain.AccountID]int64
}

func renderView(profiles []application.Profile, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("FC Online Auto-Spin"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(profiles))),
	}

	if len(profiles) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured. Add one with `fca account add`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, profile := range profiles {
		lines = append(lines, s.section.Render(renderAccount(profile, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(profile application.Profile, opts RenderOptions, s styles) string {
	account := profile.Account
	parts := []string{
		s.account.Render(accountTitle(account.Name, account.ID)),
		s.detail.Render(fmt.Sprintf("event: %s", eventLabel(account.Event, opts.EventTitles))),
		s.detail.Render(fmt.Sprintf("spin: tier %d", tierOrDefault(account.Settings.Tier))),
		credentialLine(profile, s),
		loginLine(profile, opts, s),
		targetLine(account, opts, s),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(name string, id domain.AccountID) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == string(id) {
		return string(id)
	}
	return fmt.Sprintf("%s (%s)", trimmed, id)
}

func eventLabel(name string, titles map[string]string) string {
	if name == "" {
		return "default"
	}
	if title, ok := titles[name]; ok && title != "" {
		return fmt.Sprintf("%s (%s)", title, name)
	}
	return name
}

func tierOrDefault(tier domain.SpinTier) int {
	if !tier.Valid() {
		return int(domain.MinSpinTier)
	}
	return int(tier)
}

func credentialLine(profile application.Profile, s styles) string {
	label := s.key.Render("credential:")
	if profile.HasCredential {
		return label + " " + s.ready.Render("stored")
	}
	return label + " " + s.warning.Render("not set")
}

func loginLine(profile application.Profile, opts RenderOptions, s styles) string {
	label := s.key.Render("last login:")
	if profile.LastLogin == nil {
		return label + " " + s.meta.Render("never")
	}

	line := label + " " + s.meta.Render(formatSince(*profile.LastLogin, opts.Now))
	if opts.Now.IsZero() || opts.StaleAfter <= 0 {
		return line
	}
	if opts.Now.Sub(*profile.LastLogin) > opts.StaleAfter {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

func targetLine(account domain.Account, opts RenderOptions, s styles) string {
	target := account.Settings.TargetSpecialJackpot
	label := s.key.Render("target:")
	if target <= 0 {
		return label + " " + s.meta.Render("watch only")
	}

	jackpot, known := opts.Jackpots[account.ID]
	if !known {
		return label + " " + s.detail.Render(formatAmount(target)) + " " + s.meta.Render("(no jackpot recorded)")
	}

	percent := clampPercent(float64(jackpot) / float64(target) * 100)
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		renderProgressBar(percent, 24, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%s / %s", formatAmount(jackpot), formatAmount(target))),
	)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatSince(at, now time.Time) string {
	if now.IsZero() {
		return at.Format("15:04 on 02 Jan 2006")
	}
	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatAmount(v int64) string {
	digits := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
