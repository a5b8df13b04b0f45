package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PingInterval = 0
	cfg.ReadTimeout = 5 * time.Second
	return cfg
}

// gameServer upgrades every request and hands the connection to handle
func gameServer(t *testing.T, handle func(*websocket.Conn, *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/AB12/3?token=t"
}

func nextEvent(t *testing.T, c *Client, kind EventKind) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "events channel closed")
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws/AB12/3?token=a+b"},
		{"https://quiz.example.com/", "wss://quiz.example.com/ws/AB12/3?token=a+b"},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.base, "AB12", 3, "a b")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Endpoint("ftp://x", "AB12", 3, "t")
	assert.Error(t, err)
}

func TestClientReceivesAndSends(t *testing.T) {
	received := make(chan string, 1)
	requests := make(chan *http.Request, 1)
	srv := gameServer(t, func(conn *websocket.Conn, r *http.Request) {
		requests <- r
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"state","data":{}}`))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
		conn.ReadMessage()
	})

	c := NewClient(wsURL(srv), testConfig(), clockwork.NewFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	nextEvent(t, c, EventConnected)
	assert.True(t, c.Connected())
	msg := nextEvent(t, c, EventMessage)
	assert.JSONEq(t, `{"type":"state","data":{}}`, string(msg.Data))
	r := <-requests
	assert.Equal(t, "/ws/AB12/3", r.URL.Path)
	assert.Equal(t, "t", r.URL.Query().Get("token"))

	require.NoError(t, c.Send(ctx, []byte(`{"action":"skip"}`)))
	select {
	case got := <-received:
		assert.JSONEq(t, `{"action":"skip"}`, got)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not receive command")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.False(t, c.Connected())
}

func TestSendWithoutConnection(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws/AB12/3", testConfig(), clockwork.NewFakeClock())
	err := c.Send(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, game.ErrTransportUnavailable)
	assert.False(t, c.Connected())
}

func TestClientReconnectsAfterWait(t *testing.T) {
	var connections atomic.Int32
	srv := gameServer(t, func(conn *websocket.Conn, r *http.Request) {
		if connections.Add(1) == 1 {
			return
		}
		conn.ReadMessage()
	})

	clock := clockwork.NewFakeClock()
	cfg := testConfig()
	c := NewClient(wsURL(srv), cfg, clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	first := nextEvent(t, c, EventConnected)
	nextEvent(t, c, EventDisconnected)
	assert.False(t, c.Connected())

	assert.Eventually(t, func() bool {
		clock.Advance(cfg.ReconnectWait)
		return connections.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	second := nextEvent(t, c, EventConnected)
	assert.NotEqual(t, first.ConnectionID, second.ConnectionID)
}

func TestClientSendsKeepalive(t *testing.T) {
	pings := make(chan string, 4)
	srv := gameServer(t, func(conn *websocket.Conn, r *http.Request) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			pings <- string(msg)
		}
	})

	clock := clockwork.NewFakeClock()
	cfg := testConfig()
	cfg.PingInterval = 25 * time.Second
	c := NewClient(wsURL(srv), cfg, clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	nextEvent(t, c, EventConnected)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(cfg.PingInterval)

	select {
	case got := <-pings:
		assert.JSONEq(t, `{"action":"ping"}`, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no keepalive received")
	}
}
