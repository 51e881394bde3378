package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/fconline-autospin/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var eventsYAML []byte

// CustomEventName is used when the base URL is given on the command line
// instead of picking a catalog entry.
const CustomEventName = "custom"

type selectorsFile struct {
	LoginButton   string `yaml:"login_button"`
	LogoutButton  string `yaml:"logout_button"`
	UsernameInput string `yaml:"username_input"`
	PasswordInput string `yaml:"password_input"`
	SubmitButton  string `yaml:"submit_button"`
	Captcha       string `yaml:"captcha"`
	LoginError    string `yaml:"login_error"`
	SpinAction    string `yaml:"spin_action"`
}

type eventFile struct {
	Name         string         `yaml:"name"`
	Title        string         `yaml:"title"`
	BaseURL      string         `yaml:"base_url"`
	UserEndpoint string         `yaml:"user_endpoint"`
	SpinEndpoint string         `yaml:"spin_endpoint"`
	SpinActions  []string       `yaml:"spin_actions"`
	Params       map[string]any `yaml:"params"`
	Selectors    selectorsFile  `yaml:"selectors"`
}

type catalogFile struct {
	Defaults eventFile   `yaml:"defaults"`
	Events   []eventFile `yaml:"events"`
}

// Catalog holds the known jackpot events.
type Catalog struct {
	defaults domain.EventConfig
	events   map[string]domain.EventConfig
}

// DefaultCatalog parses the embedded event list.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(eventsYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse event catalog: %w", err)
	}

	defaults := toEventConfig(file.Defaults)
	catalog := &Catalog{defaults: defaults, events: make(map[string]domain.EventConfig, len(file.Events))}
	for _, ev := range file.Events {
		name := strings.ToLower(strings.TrimSpace(ev.Name))
		if name == "" {
			return nil, fmt.Errorf("parse event catalog: event without name")
		}
		if strings.TrimSpace(ev.BaseURL) == "" {
			return nil, fmt.Errorf("parse event catalog: event %q has no base_url", name)
		}
		if _, exists := catalog.events[name]; exists {
			return nil, fmt.Errorf("parse event catalog: duplicate event %q", name)
		}
		cfg := mergeEvent(defaults, toEventConfig(ev))
		cfg.Name = name
		catalog.events[name] = cfg
	}
	return catalog, nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.events))
	for name := range c.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Events() []domain.EventConfig {
	out := make([]domain.EventConfig, 0, len(c.events))
	for _, name := range c.Names() {
		out = append(out, c.events[name])
	}
	return out
}

func (c *Catalog) Lookup(name string) (domain.EventConfig, error) {
	cfg, ok := c.events[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.EventConfig{}, fmt.Errorf("%w: %q (known: %s)", domain.ErrEventNotFound, name, strings.Join(c.Names(), ", "))
	}
	return cfg, nil
}

// EventOverrides replaces parts of a catalog event, or defines a custom event
// when BaseURL is set and no name is given.
type EventOverrides struct {
	BaseURL      string
	UserEndpoint string
	SpinEndpoint string
}

func (c *Catalog) Resolve(name string, overrides EventOverrides) (domain.EventConfig, error) {
	var cfg domain.EventConfig
	if strings.TrimSpace(name) == "" || name == CustomEventName {
		if strings.TrimSpace(overrides.BaseURL) == "" {
			return domain.EventConfig{}, fmt.Errorf("%w: pick an event or set a base URL", domain.ErrEventNotFound)
		}
		cfg = c.defaults
		cfg.Name = CustomEventName
		cfg.Title = "Custom"
	} else {
		found, err := c.Lookup(name)
		if err != nil {
			return domain.EventConfig{}, err
		}
		cfg = found
	}

	if v := strings.TrimSpace(overrides.BaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(overrides.UserEndpoint); v != "" {
		cfg.UserEndpoint = v
	}
	if v := strings.TrimSpace(overrides.SpinEndpoint); v != "" {
		cfg.SpinEndpoint = v
	}
	return cfg, nil
}

func toEventConfig(f eventFile) domain.EventConfig {
	return domain.EventConfig{
		Name:         f.Name,
		Title:        f.Title,
		BaseURL:      strings.TrimRight(f.BaseURL, "/"),
		UserEndpoint: f.UserEndpoint,
		SpinEndpoint: f.SpinEndpoint,
		Params:       f.Params,
		SpinActions:  f.SpinActions,
		Selectors: domain.Selectors{
			LoginButton:   f.Selectors.LoginButton,
			LogoutButton:  f.Selectors.LogoutButton,
			UsernameInput: f.Selectors.UsernameInput,
			PasswordInput: f.Selectors.PasswordInput,
			SubmitButton:  f.Selectors.SubmitButton,
			Captcha:       f.Selectors.Captcha,
			LoginError:    f.Selectors.LoginError,
			SpinAction:    f.Selectors.SpinAction,
		},
	}
}

func mergeEvent(base, ev domain.EventConfig) domain.EventConfig {
	out := base
	out.Name = ev.Name
	out.Title = ev.Title
	out.BaseURL = ev.BaseURL
	out.Params = ev.Params
	out.SpinActions = ev.SpinActions
	if ev.UserEndpoint != "" {
		out.UserEndpoint = ev.UserEndpoint
	}
	if ev.SpinEndpoint != "" {
		out.SpinEndpoint = ev.SpinEndpoint
	}
	out.Selectors = mergeSelectors(base.Selectors, ev.Selectors)
	return out
}

func mergeSelectors(base, s domain.Selectors) domain.Selectors {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return domain.Selectors{
		LoginButton:   pick(base.LoginButton, s.LoginButton),
		LogoutButton:  pick(base.LogoutButton, s.LogoutButton),
		UsernameInput: pick(base.UsernameInput, s.UsernameInput),
		PasswordInput: pick(base.PasswordInput, s.PasswordInput),
		SubmitButton:  pick(base.SubmitButton, s.SubmitButton),
		Captcha:       pick(base.Captcha, s.Captcha),
		LoginError:    pick(base.LoginError, s.LoginError),
		SpinAction:    pick(base.SpinAction, s.SpinAction),
	}
}
