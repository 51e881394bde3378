package domain

import (
	"fmt"
	"strings"
)

// EventConfig describes one jackpot event site: where it lives, which API
// paths it exposes and which selectors drive its pages.
type EventConfig struct {
	Name         string
	Title        string
	BaseURL      string
	UserEndpoint string
	SpinEndpoint string
	Params       map[string]any
	SpinActions  []string
	Selectors    Selectors
}

type Selectors struct {
	LoginButton   string
	LogoutButton  string
	UsernameInput string
	PasswordInput string
	SubmitButton  string
	Captcha       string
	LoginError    string
	// SpinAction is a format string receiving the tier number.
	SpinAction string
}

func (e EventConfig) UserURL() string {
	return joinURL(e.BaseURL, e.UserEndpoint)
}

func (e EventConfig) SpinURL() string {
	return joinURL(e.BaseURL, e.SpinEndpoint)
}

func (e EventConfig) SpinSelector(tier SpinTier) string {
	return fmt.Sprintf(e.Selectors.SpinAction, int(tier))
}

func (e EventConfig) TierLabel(tier SpinTier) string {
	idx := int(tier) - 1
	if idx >= 0 && idx < len(e.SpinActions) {
		return e.SpinActions[idx]
	}
	return fmt.Sprintf("Spin %d", int(tier))
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
