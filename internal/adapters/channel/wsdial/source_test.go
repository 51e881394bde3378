package wsdial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	gotCookie chan string
	gotPong   chan string
	release   chan struct{}
}

func newFakeServer(t *testing.T, frames []string) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		gotCookie: make(chan string, 1),
		gotPong:   make(chan string, 4),
		release:   make(chan struct{}),
	}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.gotCookie <- r.Header.Get("Cookie")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"abc","pingInterval":25000}`))
		_, joined, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fs.gotPong <- string(joined)

		_ = conn.WriteMessage(websocket.TextMessage, []byte("2"))
		_, pong, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fs.gotPong <- string(pong)

		for _, frame := range frames {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		}
		<-fs.release
	}))
	t.Cleanup(fs.Close)
	return fs
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSourceDeliversFramesAndAnswersEngineIO(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t, []string{
		`42["jackpot",{"content":{"type":"jackpot_value","value":"9000"}}]`,
		`42["jackpot",{"content":{"type":"jackpot_value","value":"9950"}}]`,
	})

	source := NewSource(wsURL(server.Server), []ports.Cookie{{Name: "sid", Value: "s1"}, {Name: "csrf", Value: "c2"}}, "UA/1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := source.Subscribe(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	assert.Equal(t, "sid=s1; csrf=c2", <-server.gotCookie)

	var frames []domain.Frame
	for len(frames) < 2 {
		select {
		case frame := <-sub.Frames():
			frames = append(frames, frame)
		case <-ctx.Done():
			t.Fatal("timed out waiting for frames")
		}
	}

	assert.Equal(t, "40", <-server.gotPong)
	assert.Equal(t, "3", <-server.gotPong)
	assert.Contains(t, frames[0].Payload, "9000")
	assert.Equal(t, uint64(1), frames[0].Sequence)
	assert.Equal(t, uint64(2), frames[1].Sequence)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	close(server.release)
}

func TestSourceReportsChannelClosedWhenServerHangsUp(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t, nil)
	close(server.release)

	sub, err := NewSource(wsURL(server.Server), nil, "").Subscribe(context.Background())
	require.NoError(t, err)

	select {
	case _, ok := <-sub.Frames():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end")
	}
	assert.ErrorIs(t, sub.Err(), domain.ErrChannelClosed)
}

func TestSourceDialFailure(t *testing.T) {
	t.Parallel()

	_, err := NewSource("ws://127.0.0.1:1/socket", nil, "").Subscribe(context.Background())
	require.Error(t, err)
}
