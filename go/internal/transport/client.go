package transport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Config holds configuration for the websocket client
type Config struct {
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
	// PingInterval is the keepalive period; zero disables keepalive
	PingInterval   time.Duration
	ReconnectWait  time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConfig returns default websocket client configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     25 * time.Second,
		ReconnectWait:    2 * time.Second,
		MaxMessageSize:   64 * 1024,
		SendBuffer:       64,
	}
}

// EventKind classifies what the transport delivers to its consumer
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventMessage      EventKind = "message"
)

// Event is one item on the inbound channel
type Event struct {
	Kind         EventKind
	ConnectionID string
	Data         []byte
}

// pingFrame is the application-level keepalive the game server answers with a pong
var pingFrame = []byte(`{"action":"ping"}`)

// Endpoint builds the websocket URL for a participant from the server's HTTP base URL
func Endpoint(baseURL, pin string, playerID int, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = "/ws/" + url.PathEscape(pin) + "/" + strconv.Itoa(playerID)
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// Client keeps one websocket connection to the game server alive, redialing
// after a fixed wait whenever it drops
type Client struct {
	endpoint string
	config   Config
	clock    clockwork.Clock
	dialer   *websocket.Dialer

	events chan Event

	mu        sync.RWMutex
	active    *connection
	connected atomic.Bool
}

type connection struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// NewClient creates a client for endpoint. It does not dial until Run is called.
func NewClient(endpoint string, config Config, clock clockwork.Clock) *Client {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	return &Client{
		endpoint: endpoint,
		config:   config,
		clock:    clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		events: make(chan Event, 16),
	}
}

// Events returns the inbound channel. It is closed when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Connected reports whether a live connection exists
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Send queues payload on the live connection without blocking
func (c *Client) Send(ctx context.Context, payload []byte) error {
	c.mu.RLock()
	conn := c.active
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected: %w", game.ErrTransportUnavailable)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.done:
		return fmt.Errorf("connection closed: %w", game.ErrTransportUnavailable)
	case conn.send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full: %w", game.ErrTransportUnavailable)
	}
}

// Run dials and serves connections until ctx is done
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)
	log.Info().Msg("transport started")

	for {
		if err := c.connectAndServe(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Dur("retry_in", c.config.ReconnectWait).Msg("transport disconnected")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("transport shutting down")
			return nil
		case <-c.clock.After(c.config.ReconnectWait):
		}
	}
}

func (c *Client) connectAndServe(ctx context.Context) error {
	ws, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	conn := &connection{
		id:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, c.config.SendBuffer),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	c.active = conn
	c.mu.Unlock()
	c.connected.Store(true)

	log.Info().Str("connection_id", conn.id).Msg("websocket connection established")
	c.emit(ctx, Event{Kind: EventConnected, ConnectionID: conn.id})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(ctx, conn)
	}()

	err = c.readPump(ctx, conn)

	c.connected.Store(false)
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	conn.close()
	wg.Wait()

	c.emit(ctx, Event{Kind: EventDisconnected, ConnectionID: conn.id})
	return err
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// writePump handles sending queued messages and keepalives
func (c *Client) writePump(ctx context.Context, conn *connection) {
	var pings <-chan time.Time
	if c.config.PingInterval > 0 {
		ticker := c.clock.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		pings = ticker.Chan()
	}
	defer conn.close()

	for {
		select {
		case <-ctx.Done():
			conn.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			conn.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-conn.done:
			return
		case message := <-conn.send:
			if err := c.write(conn, message); err != nil {
				log.Error().Err(err).Str("connection_id", conn.id).Msg("failed to write message to websocket")
				return
			}
		case <-pings:
			if err := c.write(conn, pingFrame); err != nil {
				log.Error().Err(err).Str("connection_id", conn.id).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Client) write(conn *connection, message []byte) error {
	conn.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return conn.ws.WriteMessage(websocket.TextMessage, message)
}

// readPump forwards inbound frames until the connection fails
func (c *Client) readPump(ctx context.Context, conn *connection) error {
	if c.config.MaxMessageSize > 0 {
		conn.ws.SetReadLimit(c.config.MaxMessageSize)
	}
	extend := func() {
		if c.config.ReadTimeout > 0 {
			conn.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}
	}
	extend()
	conn.ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", conn.id).Msg("unexpected websocket close error")
			}
			return err
		}
		extend()

		select {
		case c.events <- Event{Kind: EventMessage, ConnectionID: conn.id, Data: message}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
