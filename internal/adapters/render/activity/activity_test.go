package activity

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   domain.ActivityEvent
		want Tag
	}{
		{name: "error beats category", ev: domain.ActivityEvent{Severity: domain.SeverityError, Category: domain.CategoryJackpot}, want: TagError},
		{name: "warning", ev: domain.ActivityEvent{Severity: domain.SeverityWarning, Category: domain.CategorySpin}, want: TagWarning},
		{name: "jackpot", ev: domain.ActivityEvent{Severity: domain.SeverityInfo, Category: domain.CategoryJackpot}, want: TagJackpot},
		{name: "reward", ev: domain.ActivityEvent{Severity: domain.SeveritySuccess, Category: domain.CategoryReward}, want: TagReward},
		{name: "own win", ev: domain.ActivityEvent{Severity: domain.SeveritySuccess, Category: domain.CategoryWinner}, want: TagWinner},
		{name: "someone else won", ev: domain.ActivityEvent{Severity: domain.SeverityInfo, Category: domain.CategoryWinner}, want: TagInfo},
		{name: "login success", ev: domain.ActivityEvent{Severity: domain.SeveritySuccess, Category: domain.CategoryLogin}, want: TagSuccess},
		{name: "debug", ev: domain.ActivityEvent{Severity: domain.SeverityDebug, Category: domain.CategoryChannel}, want: TagDefault},
		{name: "plain info", ev: domain.ActivityEvent{Severity: domain.SeverityInfo, Category: domain.CategorySession}, want: TagInfo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TagFor(tt.ev))
		})
	}
}

func TestRendererWritesLines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := New(&out, Options{ShowAccount: true})
	at := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)

	require.NoError(t, r.Handle(context.Background(), domain.ActivityEvent{
		Timestamp: at,
		AccountID: "main",
		Severity:  domain.SeverityInfo,
		Category:  domain.CategoryJackpot,
		Message:   "Special Jackpot has reached 10,000",
	}))
	require.NoError(t, r.Handle(context.Background(), domain.ActivityEvent{Timestamp: at, Severity: domain.SeverityDebug, Message: "hidden"}))
	require.NoError(t, r.Handle(context.Background(), domain.JackpotState{SpecialJackpot: 1}))

	assert.Equal(t, "[14:05:09] main Special Jackpot has reached 10,000\n", out.String())
}

func TestRendererShowsDebugWhenAsked(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := New(&out, Options{ShowDebug: true, TimeFormat: "15:04"})
	require.NoError(t, r.Handle(context.Background(), domain.ActivityEvent{
		Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		AccountID: "main",
		Severity:  domain.SeverityDebug,
		Message:   "frame ignored",
	}))

	assert.Equal(t, "[09:30] frame ignored\n", out.String())
}
