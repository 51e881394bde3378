package wsdial

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 15 * time.Second
	writeTimeout     = 5 * time.Second
)

// Source dials the push channel directly instead of observing it through the
// browser. It speaks just enough Engine.IO to stay connected: it joins the
// default namespace after the open packet and answers pings.
type Source struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
}

var _ ports.FrameSource = (*Source)(nil)

func NewSource(url string, cookies []ports.Cookie, userAgent string) *Source {
	header := http.Header{}
	if len(cookies) > 0 {
		parts := make([]string, 0, len(cookies))
		for _, c := range cookies {
			parts = append(parts, c.Name+"="+c.Value)
		}
		header.Set("Cookie", strings.Join(parts, "; "))
	}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	return &Source{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (s *Source) Subscribe(ctx context.Context) (ports.FrameSubscription, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial push channel %s: %w", s.url, err)
	}

	sub := &subscription{
		conn: conn,
		url:  s.url,
		out:  make(chan domain.Frame),
		stop: make(chan struct{}),
	}
	go sub.read()
	return sub, nil
}

type subscription struct {
	conn *websocket.Conn
	url  string
	out  chan domain.Frame
	stop chan struct{}

	seq       atomic.Uint64
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	mu  sync.Mutex
	err error
}

func (s *subscription) Frames() <-chan domain.Frame {
	return s.out
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (s *subscription) read() {
	defer close(s.out)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.mu.Lock()
				s.err = fmt.Errorf("%w: %s: %w", domain.ErrChannelClosed, s.url, err)
				s.mu.Unlock()
				_ = s.conn.Close()
			}
			return
		}

		payload := string(data)
		switch {
		case strings.HasPrefix(payload, "0{"):
			s.write("40")
			continue
		case payload == "2":
			s.write("3")
			continue
		}

		frame := domain.Frame{
			Payload:    payload,
			Source:     s.url,
			ReceivedAt: time.Now(),
			Sequence:   s.seq.Add(1),
		}
		select {
		case s.out <- frame:
		case <-s.stop:
			return
		}
	}
}

func (s *subscription) write(packet string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.TextMessage, []byte(packet))
}
