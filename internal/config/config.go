// Package config loads run settings from the config file, FCA_* environment
// variables and command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/viper"
)

const (
	KeyEvent        = "event"
	KeyBaseURL      = "base_url"
	KeyUserEndpoint = "user_endpoint"
	KeySpinEndpoint = "spin_endpoint"
	KeySpinAction   = "spin_action"
	KeyTarget       = "target_special_jackpot"
	KeySpinMode     = "spin_mode"
	KeyDuration     = "duration"
	KeyRestart      = "restart"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"

	KeyBrowserPath     = "browser.path"
	KeyBrowserHeadless = "browser.headless"
	KeyBrowserProfile  = "browser.profile_dir"
	KeyBrowserLocale   = "browser.locale"
	KeyBrowserTimezone = "browser.timezone"
	KeyBrowserWidth    = "browser.width"
	KeyBrowserHeight   = "browser.height"
	KeyBrowserAgents   = "browser.user_agents"
	KeyLaunchAttempts  = "browser.launch_attempts"

	KeyChannelMode = "channel.mode"
	KeyChannelURL  = "channel.url"

	KeyCooldown     = "engine.cooldown"
	KeyMaxAttempts  = "engine.max_attempts"
	KeySpinTimeout  = "engine.spin_timeout"
	KeyLoginRetries = "login.retries"
	KeyLoginTimeout = "login.timeout"
	KeyCaptchaPoll  = "login.captcha_poll"

	KeyMetricsAddr = "metrics.addr"
	KeyRedisAddr   = "redis.addr"
	KeyRedisPass   = "redis.password"
	KeyRedisStream = "redis.stream"
	KeyHistoryPath = "history.path"
	KeyDataDir     = "data_dir"
)

const (
	SpinModeAPI   = "api"
	SpinModeClick = "click"

	ChannelModeBrowser = "browser"
	ChannelModeDirect  = "direct"
)

// Settings is the resolved configuration of one run.
type Settings struct {
	Event     string
	Overrides EventOverrides
	Account   domain.AccountID
	Tier      domain.SpinTier
	Target    int64
	SpinMode  string
	Duration  time.Duration
	Restarts  int
	LogLevel  string
	LogFormat string

	Browser BrowserSettings
	Channel ChannelSettings
	Engine  EngineSettings
	Login   LoginSettings

	MetricsAddr string
	Redis       RedisSettings
	HistoryPath string
	DataDir     string
}

type BrowserSettings struct {
	ExecPath       string
	Headless       bool
	ProfileDir     string
	Locale         string
	Timezone       string
	Width          int
	Height         int
	UserAgents     []string
	LaunchAttempts int
}

type ChannelSettings struct {
	Mode string
	URL  string
}

type EngineSettings struct {
	Cooldown    time.Duration
	MaxAttempts int
	SpinTimeout time.Duration
}

type LoginSettings struct {
	Retries     int
	Timeout     time.Duration
	CaptchaPoll time.Duration
}

type RedisSettings struct {
	Addr     string
	Password string
	Stream   string
}

// New returns a viper instance reading configFile, or
// $XDG_CONFIG_HOME/fca/config.toml when configFile is empty. A missing
// default file is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("FCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configFile = filepath.Join(dir, "config.toml")
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return v, nil
		}
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}
	return v, nil
}

// DefaultDir is the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, "fca"), nil
}

// DefaultDataDir holds the vault, cookies, history and browser profile.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "fca"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "fca"), nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEvent, "bilac")
	v.SetDefault(KeyUserEndpoint, "")
	v.SetDefault(KeySpinEndpoint, "")
	v.SetDefault(KeySpinAction, 1)
	v.SetDefault(KeyTarget, 0)
	v.SetDefault(KeySpinMode, SpinModeAPI)
	v.SetDefault(KeyDuration, time.Duration(0))
	v.SetDefault(KeyRestart, 3)
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyLogFormat, "text")

	v.SetDefault(KeyBrowserHeadless, false)
	v.SetDefault(KeyBrowserLocale, "vi-VN")
	v.SetDefault(KeyBrowserTimezone, "Asia/Ho_Chi_Minh")
	v.SetDefault(KeyBrowserWidth, 1920)
	v.SetDefault(KeyBrowserHeight, 1080)
	v.SetDefault(KeyLaunchAttempts, 3)

	v.SetDefault(KeyChannelMode, ChannelModeBrowser)

	v.SetDefault(KeyCooldown, 5*time.Second)
	v.SetDefault(KeyMaxAttempts, 3)
	v.SetDefault(KeySpinTimeout, 15*time.Second)
	v.SetDefault(KeyLoginRetries, 3)
	v.SetDefault(KeyLoginTimeout, 30*time.Second)
	v.SetDefault(KeyCaptchaPoll, 2*time.Second)

	v.SetDefault(KeyRedisStream, "fca:events")
}

// Load resolves and validates settings for account.
func Load(v *viper.Viper, account domain.AccountID) (Settings, error) {
	tier, err := domain.ParseSpinTier(v.GetInt(KeySpinAction))
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Event: strings.TrimSpace(v.GetString(KeyEvent)),
		Overrides: EventOverrides{
			BaseURL:      v.GetString(KeyBaseURL),
			UserEndpoint: v.GetString(KeyUserEndpoint),
			SpinEndpoint: v.GetString(KeySpinEndpoint),
		},
		Account:   account,
		Tier:      tier,
		Target:    v.GetInt64(KeyTarget),
		SpinMode:  strings.ToLower(v.GetString(KeySpinMode)),
		Duration:  v.GetDuration(KeyDuration),
		Restarts:  v.GetInt(KeyRestart),
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		Browser: BrowserSettings{
			ExecPath:       v.GetString(KeyBrowserPath),
			Headless:       v.GetBool(KeyBrowserHeadless),
			ProfileDir:     v.GetString(KeyBrowserProfile),
			Locale:         v.GetString(KeyBrowserLocale),
			Timezone:       v.GetString(KeyBrowserTimezone),
			Width:          v.GetInt(KeyBrowserWidth),
			Height:         v.GetInt(KeyBrowserHeight),
			UserAgents:     v.GetStringSlice(KeyBrowserAgents),
			LaunchAttempts: v.GetInt(KeyLaunchAttempts),
		},
		Channel: ChannelSettings{
			Mode: strings.ToLower(v.GetString(KeyChannelMode)),
			URL:  v.GetString(KeyChannelURL),
		},
		Engine: EngineSettings{
			Cooldown:    v.GetDuration(KeyCooldown),
			MaxAttempts: v.GetInt(KeyMaxAttempts),
			SpinTimeout: v.GetDuration(KeySpinTimeout),
		},
		Login: LoginSettings{
			Retries:     v.GetInt(KeyLoginRetries),
			Timeout:     v.GetDuration(KeyLoginTimeout),
			CaptchaPoll: v.GetDuration(KeyCaptchaPoll),
		},
		MetricsAddr: v.GetString(KeyMetricsAddr),
		Redis: RedisSettings{
			Addr:     v.GetString(KeyRedisAddr),
			Password: v.GetString(KeyRedisPass),
			Stream:   v.GetString(KeyRedisStream),
		},
		HistoryPath: v.GetString(KeyHistoryPath),
		DataDir:     v.GetString(KeyDataDir),
	}

	if s.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Settings{}, err
		}
		s.DataDir = dir
	}
	if s.HistoryPath == "" {
		s.HistoryPath = filepath.Join(s.DataDir, "history.db")
	}
	if s.Browser.ProfileDir == "" {
		s.Browser.ProfileDir = filepath.Join(s.DataDir, "profiles", string(account))
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.Target < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyTarget, s.Target)
	}
	switch s.SpinMode {
	case SpinModeAPI, SpinModeClick:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", KeySpinMode, SpinModeAPI, SpinModeClick, s.SpinMode)
	}
	switch s.Channel.Mode {
	case ChannelModeBrowser:
	case ChannelModeDirect:
		if strings.TrimSpace(s.Channel.URL) == "" {
			return fmt.Errorf("%s is required when %s is %q", KeyChannelURL, KeyChannelMode, ChannelModeDirect)
		}
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", KeyChannelMode, ChannelModeBrowser, ChannelModeDirect, s.Channel.Mode)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%s must not be negative", KeyDuration)
	}
	if s.Restarts < 0 {
		return fmt.Errorf("%s must not be negative", KeyRestart)
	}
	if s.Engine.Cooldown < 0 || s.Engine.SpinTimeout <= 0 {
		return errors.New("engine cooldown must be >= 0 and spin timeout > 0")
	}
	if s.Engine.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", KeyMaxAttempts)
	}
	if s.Login.Retries < 0 || s.Login.CaptchaPoll <= 0 {
		return errors.New("login retries must be >= 0 and captcha poll interval > 0")
	}
	if s.Browser.LaunchAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", KeyLaunchAttempts)
	}
	return nil
}
