package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, url string) string {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestServerExposesDomainSeries(t *testing.T) {
	t.Parallel()

	logger, _ := logtest.NewNullLogger()
	collector := NewCollector()
	server := NewServer("127.0.0.1:0", "", logger)
	require.NoError(t, server.Setup(collector))
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	ctx := context.Background()
	mini := int64(1200)
	require.NoError(t, collector.Handle(ctx, domain.JackpotState{AccountID: "main", SpecialJackpot: 10010, MiniJackpot: &mini}))
	require.NoError(t, collector.Handle(ctx, domain.SpinOutcome{AccountID: "main", Result: domain.SpinSucceeded}))
	require.NoError(t, collector.Handle(ctx, domain.SpinOutcome{AccountID: "main", Result: domain.SpinTimedOut}))
	require.NoError(t, collector.Handle(ctx, domain.EngineTransition{AccountID: "main", From: domain.EngineWatching, To: domain.EngineCooling}))
	require.NoError(t, collector.Handle(ctx, domain.JackpotWin{AccountID: "main", Kind: domain.WinUltimate, Mine: true}))
	require.NoError(t, collector.Handle(ctx, domain.SessionLost{AccountID: "main"}))
	collector.FrameAccepted("main")
	collector.FrameDropped("main", "stale_sequence")

	body := scrape(t, "http://"+server.Addr()+DefaultEndpoint)

	assert.Contains(t, body, `fca_special_jackpot_value{account="main"} 10010`)
	assert.Contains(t, body, `fca_mini_jackpot_value{account="main"} 1200`)
	assert.Contains(t, body, `fca_spins_total{account="main",result="succeeded"} 1`)
	assert.Contains(t, body, `fca_spins_total{account="main",result="timed_out"} 1`)
	assert.Contains(t, body, `fca_engine_state{account="main",state="cooling"} 1`)
	assert.Contains(t, body, `fca_engine_state{account="main",state="watching"} 0`)
	assert.Contains(t, body, `fca_jackpot_wins_total{account="main",kind="jackpot",mine="true"} 1`)
	assert.Contains(t, body, `fca_sessions_lost_total{account="main"} 1`)
	assert.Contains(t, body, `fca_frames_accepted_total{account="main"} 1`)
	assert.Contains(t, body, `fca_frames_dropped_total{account="main",reason="stale_sequence"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServerStartRequiresSetup(t *testing.T) {
	t.Parallel()

	logger, _ := logtest.NewNullLogger()
	server := NewServer("127.0.0.1:0", "", logger)
	require.Error(t, server.Start(context.Background()))
	require.NoError(t, server.Shutdown(context.Background()))
}
