package browser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "vi-VN,vi;q=0.9,en;q=0.8", acceptLanguage("vi-VN"))
	assert.Equal(t, "en", acceptLanguage("en"))
}

func TestCDPTimeKeepsFractionalSeconds(t *testing.T) {
	t.Parallel()

	got := cdpTime(1_700_000_000.5).Time()
	assert.Equal(t, int64(1_700_000_000), got.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(got.Nanosecond()))
}

func TestAllocatorOptionsIncludeOverrides(t *testing.T) {
	t.Parallel()

	opts := allocatorOptions(ports.LaunchOptions{
		ExecPath:    "/usr/bin/chromium",
		UserDataDir: "/tmp/profile",
		UserAgent:   "UA",
		Locale:      "vi-VN",
		Flags:       map[string]any{"proxy-server": "socks5://127.0.0.1:9050"},
	})
	assert.Len(t, opts, len(allocatorOptions(ports.LaunchOptions{}))+5)
}

const testPage = `<!doctype html>
<html><body>
<a href="/user/login" id="login" onclick="event.preventDefault(); document.getElementById('form').style.display='block'">Đăng nhập</a>
<form id="form" style="display:none" onsubmit="event.preventDefault(); document.body.dataset.user = this.querySelector('input[type=text]').value">
  <input type="text"><input type="password"><button type="submit">Go</button>
</form>
<script>
  const ws = new WebSocket(location.origin.replace("http", "ws") + "/socket");
</script>
</body></html>`

// TestLauncherAgainstLocalSite needs a Chrome binary and is opt-in.
func TestLauncherAgainstLocalSite(t *testing.T) {
	if os.Getenv("FCA_BROWSER_TESTS") == "" {
		t.Skip("set FCA_BROWSER_TESTS=1 to run against a local Chrome")
	}

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, testPage)
	})
	mux.HandleFunc("/api/user/get", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"payload":{"user":{"nickname":"tester"}}}`)
	})
	mux.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(500 * time.Millisecond)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`42["jackpot",{"content":{"type":"jackpot_value","value":"10,010"}}]`))
		time.Sleep(200 * time.Millisecond)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	launcher := NewLauncher(logrus.New())
	page, err := launcher.Launch(ctx, ports.LaunchOptions{
		Headless:       true,
		ExecPath:       os.Getenv("FCA_CHROME_PATH"),
		StealthScripts: []string{`Object.defineProperty(navigator, "webdriver", {get: () => undefined});`},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = page.Close(context.Background()) })

	sub, err := page.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, page.Navigate(ctx, server.URL))

	visible, err := page.Visible(ctx, `a:has-text("Đăng nhập")`)
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, page.Click(ctx, `a:has-text("Đăng nhập")`))
	require.NoError(t, page.Fill(ctx, "form input[type='text']", "player-1"))

	resp, err := page.Fetch(ctx, ports.FetchRequest{URL: server.URL + "/api/user/get"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Contains(t, string(resp.Body), "tester")

	select {
	case frame := <-sub.Frames():
		assert.Contains(t, frame.Payload, "jackpot_value")
		assert.Equal(t, uint64(1), frame.Sequence)
	case <-ctx.Done():
		t.Fatal("no frame received")
	}

	select {
	case _, ok := <-sub.Frames():
		assert.False(t, ok)
		assert.ErrorIs(t, sub.Err(), domain.ErrChannelClosed)
	case <-ctx.Done():
		t.Fatal("channel close not reported")
	}

	require.NoError(t, page.Close(context.Background()))
	require.NoError(t, page.Close(context.Background()))
	<-page.Done()
}
