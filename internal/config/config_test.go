package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasAllEvents(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"bilac", "tcss", "typhu", "vqtg"}, catalog.Names())

	bilac, err := catalog.Lookup("BiLac")
	require.NoError(t, err)
	assert.Equal(t, "https://bilac.fconline.garena.vn", bilac.BaseURL)
	assert.Equal(t, "https://bilac.fconline.garena.vn/api/user/spin", bilac.SpinURL())
	assert.Equal(t, "https://bilac.fconline.garena.vn/api/user/get", bilac.UserURL())
	assert.Equal(t, "a[href='/user/login']", bilac.Selectors.LoginButton)
	assert.Equal(t, "div.spin__actions a.btn-spin.btn-spin--2", bilac.SpinSelector(2))
	assert.Equal(t, "190 FC Spin", bilac.TierLabel(2))

	vqtg, err := catalog.Lookup("vqtg")
	require.NoError(t, err)
	assert.Equal(t, "api/reward/spin", vqtg.SpinEndpoint)
	assert.Equal(t, false, vqtg.Params["is_free"])
	assert.Contains(t, vqtg.Params, "use_topup_deal")

	tcss, err := catalog.Lookup("tcss")
	require.NoError(t, err)
	assert.Equal(t, `header a:has-text("Đăng nhập")`, tcss.Selectors.LoginButton)
	assert.Equal(t, "a[href='/user/logout']", tcss.Selectors.LogoutButton)
	assert.Len(t, tcss.SpinActions, 4)
}

func TestCatalogLookupUnknown(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	_, err = catalog.Lookup("nope")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Contains(t, err.Error(), "bilac")
}

func TestCatalogResolve(t *testing.T) {
	t.Parallel()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	custom, err := catalog.Resolve("", EventOverrides{BaseURL: "https://example.test/", SpinEndpoint: "api/spin"})
	require.NoError(t, err)
	assert.Equal(t, CustomEventName, custom.Name)
	assert.Equal(t, "https://example.test/api/spin", custom.SpinURL())
	assert.Equal(t, "https://example.test/api/user/get", custom.UserURL())
	assert.NotEmpty(t, custom.Selectors.SubmitButton)

	overridden, err := catalog.Resolve("typhu", EventOverrides{UserEndpoint: "api/me"})
	require.NoError(t, err)
	assert.Equal(t, "https://typhu.fconline.garena.vn/api/me", overridden.UserURL())

	_, err = catalog.Resolve("", EventOverrides{})
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestParseCatalogRejectsBrokenFiles(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad yaml":       "events: [",
		"missing name":   "events:\n  - base_url: https://x.test\n",
		"missing url":    "events:\n  - name: x\n",
		"duplicate name": "events:\n  - name: x\n    base_url: https://x.test\n  - name: X\n    base_url: https://y.test\n",
	}
	for name, data := range tests {
		name, data := name, data
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestStealthScripts(t *testing.T) {
	t.Parallel()

	scripts, err := StealthScripts("vi-VN")
	require.NoError(t, err)
	require.Len(t, scripts, 6)
	assert.Contains(t, scripts[0], "webdriver")
	assert.Contains(t, scripts[1], `["vi-VN","vi","en-US","en"]`)
	for _, s := range scripts {
		assert.NotContains(t, s, languagesPlaceholder)
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en-US", "en"}, Languages(""))
	assert.Equal(t, []string{"en-US", "en"}, Languages("en-US"))
	assert.Equal(t, []string{"vi-VN", "vi", "en-US", "en"}, Languages("vi-VN"))
}

func TestUserAgentForIsStablePerAccount(t *testing.T) {
	t.Parallel()

	first := UserAgentFor("main", nil)
	assert.Equal(t, first, UserAgentFor("main", nil))
	assert.Contains(t, DefaultUserAgents, first)

	assert.Equal(t, "only", UserAgentFor("anything", []string{"only"}))

	seen := map[string]bool{}
	for _, id := range []domain.AccountID{"a", "b", "c", "d", "e", "f", "g", "h"} {
		seen[UserAgentFor(id, nil)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDataDir, t.TempDir())

	s, err := Load(v, "main")
	require.NoError(t, err)
	assert.Equal(t, "bilac", s.Event)
	assert.Equal(t, domain.SpinTier(1), s.Tier)
	assert.Equal(t, SpinModeAPI, s.SpinMode)
	assert.Equal(t, ChannelModeBrowser, s.Channel.Mode)
	assert.Equal(t, 5*time.Second, s.Engine.Cooldown)
	assert.Equal(t, 3, s.Engine.MaxAttempts)
	assert.Equal(t, 3, s.Browser.LaunchAttempts)
	assert.Equal(t, filepath.Join(s.DataDir, "history.db"), s.HistoryPath)
	assert.Equal(t, filepath.Join(s.DataDir, "profiles", "main"), s.Browser.ProfileDir)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := map[string]func(v *viper.Viper){
		"tier too high":       func(v *viper.Viper) { v.Set(KeySpinAction, 5) },
		"negative target":     func(v *viper.Viper) { v.Set(KeyTarget, -1) },
		"bad spin mode":       func(v *viper.Viper) { v.Set(KeySpinMode, "magic") },
		"direct without url":  func(v *viper.Viper) { v.Set(KeyChannelMode, ChannelModeDirect) },
		"bad channel mode":    func(v *viper.Viper) { v.Set(KeyChannelMode, "carrier-pigeon") },
		"zero attempts":       func(v *viper.Viper) { v.Set(KeyMaxAttempts, 0) },
		"zero launches":       func(v *viper.Viper) { v.Set(KeyLaunchAttempts, 0) },
		"zero spin timeout":   func(v *viper.Viper) { v.Set(KeySpinTimeout, 0) },
		"negative restarts":   func(v *viper.Viper) { v.Set(KeyRestart, -1) },
		"zero captcha period": func(v *viper.Viper) { v.Set(KeyCaptchaPoll, 0) },
	}

	for name, mutate := range tests {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			SetDefaults(v)
			v.Set(KeyDataDir, t.TempDir())
			mutate(v)
			_, err := Load(v, "main")
			require.Error(t, err)
		})
	}
}

func TestNewReadsConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("event = \"tcss\"\ntarget_special_jackpot = 10000\n\n[engine]\ncooldown = \"9s\"\n"), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	v.Set(KeyDataDir, t.TempDir())

	s, err := Load(v, "main")
	require.NoError(t, err)
	assert.Equal(t, "tcss", s.Event)
	assert.Equal(t, int64(10000), s.Target)
	assert.Equal(t, 9*time.Second, s.Engine.Cooldown)
}

func TestNewRejectsMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEnvCredential(t *testing.T) {
	t.Parallel()

	cred, ok, err := EnvCredential(map[string]string{"FC_USERNAME": "player", "FC_PASSWORD": "hunter2"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Credential{Username: "player", Secret: "hunter2"}, cred)

	_, ok, err = EnvCredential(map[string]string{"FC_USERNAME": "player"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDotenvSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]logrus.Level{
		"TRACE":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"INFO":     logrus.InfoLevel,
		"SUCCESS":  logrus.InfoLevel,
		"WARNING":  logrus.WarnLevel,
		"ERROR":    logrus.ErrorLevel,
		"CRITICAL": logrus.FatalLevel,
	}
	for name, want := range cases {
		got, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLogLevel("LOUD")
	require.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, err := NewLogger(&out, "INFO", "json")
	require.NoError(t, err)
	logger.Info("hello")
	assert.True(t, strings.HasPrefix(out.String(), "{"))

	_, err = NewLogger(&out, "INFO", "xml")
	require.Error(t, err)
}

func TestWatchTargetAppliesChangedTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("target_special_jackpot = 100\n"), 0o600))

	v, err := New(path)
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	var applied atomic.Int64
	require.True(t, WatchTarget(v, logger, func(target int64) { applied.Store(target) }))

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("target_special_jackpot = 250\n"), 0o600)
		return applied.Load() == 250
	}, 5*time.Second, 100*time.Millisecond)
}

func TestWatchTargetWithoutFile(t *testing.T) {
	t.Parallel()

	logger, _ := logtest.NewNullLogger()
	assert.False(t, WatchTarget(viper.New(), logger, func(int64) {}))
}
