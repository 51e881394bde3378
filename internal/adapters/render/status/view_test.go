package status

import (
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/application"
	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSingleProfile(t *testing.T) {
	now := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	lastLogin := now.Add(-3 * time.Hour)

	output, err := Render([]application.Profile{
		{
			Account: domain.Account{
				ID:       "main",
				Name:     "Main",
				Event:    "bilac",
				Settings: domain.SpinSettings{Tier: 2, TargetSpecialJackpot: 10_000},
			},
			HasCredential: true,
			LastLogin:     &lastLogin,
		},
	}, RenderOptions{
		Now:         now,
		StaleAfter:  24 * time.Hour,
		EventTitles: map[string]string{"bilac": "Bi Lắc"},
		Jackpots:    map[domain.AccountID]int64{"main": 7_500},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 1")
	assert.Contains(t, output, "Main (main)")
	assert.Contains(t, output, "event: Bi Lắc (bilac)")
	assert.Contains(t, output, "spin: tier 2")
	assert.Contains(t, output, "stored")
	assert.Contains(t, output, "3 hours ago")
	assert.Contains(t, output, "7,500 / 10,000")
	assert.Contains(t, output, "[")
	assert.NotContains(t, output, "stale")
}

func TestRenderMultiProfile(t *testing.T) {
	now := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	oldLogin := now.Add(-72 * time.Hour)

	output, err := Render([]application.Profile{
		{Account: domain.Account{ID: "main", Name: "Main", Settings: domain.SpinSettings{TargetSpecialJackpot: 20_000}}},
		{Account: domain.Account{ID: "alt", Name: "alt"}, HasCredential: true, LastLogin: &oldLogin},
	}, RenderOptions{Now: now, StaleAfter: 24 * time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, "not set")
	assert.Contains(t, output, "never")
	assert.Contains(t, output, "20,000")
	assert.Contains(t, output, "no jackpot recorded")
	assert.Contains(t, output, "watch only")
	assert.Contains(t, output, "3 days ago")
	assert.Contains(t, output, "[stale]")
	assert.Contains(t, output, "event: default")
}

func TestRenderEmptyProfiles(t *testing.T) {
	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No accounts configured")
}

func TestRenderProgressBarClampsOverflow(t *testing.T) {
	t.Parallel()

	s := newStyles()
	full := renderProgressBar(180, 10, s)
	assert.Contains(t, full, "==========")
	assert.NotContains(t, full, "-")

	empty := renderProgressBar(-5, 4, s)
	assert.Contains(t, empty, "----")
}

func TestFormatSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{at: now.Add(-10 * time.Second), want: "just now"},
		{at: now.Add(-time.Minute), want: "1 minute ago"},
		{at: now.Add(-45 * time.Minute), want: "45 minutes ago"},
		{at: now.Add(-25 * time.Hour), want: "1 day ago"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSince(tt.at, now))
	}
}
