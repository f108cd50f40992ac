// Package client owns one logical WebSocket connection to the relay:
// connect/retry/backoff, typed publish/subscribe and when-ready queuing.
package client

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"refractor/internal/model"
)

// State is the connection manager's lifecycle state.
type State int

const (
	// StateDisconnected: no connection and no retry pending. Entered
	// initially, after Disconnect, and terminally once retries are
	// exhausted; leaving it requires an explicit Connect call.
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	// StateClosed: the connection dropped and a reconnect is scheduled.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

var (
	// ErrRetryExhausted is reported once the reconnect budget is spent.
	ErrRetryExhausted = errors.New("max reconnection attempts reached")
	// ErrNotConnected is reported for ready-waits on an idle client.
	ErrNotConnected = errors.New("websocket not connected")
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
)

// Handler consumes one envelope. Handlers run synchronously on the
// delivery goroutine, so they should not block.
type Handler func(env model.Envelope)

// Subscription identifies one registered handler so it can be removed.
// Funcs are not comparable in Go, hence the handle.
type Subscription struct {
	msgType string
	fn      Handler
}

// Config configures a Client. Zero values fall back to the relay
// defaults (5 attempts, 1s base delay).
type Config struct {
	URL         string
	Origin      string
	MaxAttempts int
	BaseDelay   time.Duration
	Dialer      *websocket.Dialer
}

// Client is a reconnect-capable relay connection. One Client owns
// exactly one logical connection; create separate instances rather than
// sharing a package-level singleton.
type Client struct {
	cfg       Config
	sessionID string

	mu         sync.Mutex
	state      State
	exhausted  bool
	conn       *websocket.Conn
	attempts   int
	retryTimer *time.Timer
	ready      []chan error

	wmu sync.Mutex // 1本のコネクションへの書き込みを直列化

	lmu       sync.RWMutex
	listeners map[string]map[*Subscription]struct{}
}

// New creates a Client for the given relay endpoint. The session id is
// generated once per Client and travels on self-originated envelopes so
// receivers can tell their own echo apart.
func New(cfg Config) *Client {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &Client{
		cfg:       cfg,
		sessionID: fmt.Sprintf("session-%d-%04d", time.Now().UnixMilli(), rand.IntN(10000)),
		listeners: make(map[string]map[*Subscription]struct{}),
	}
}

// SessionID returns the client-generated session identifier.
func (c *Client) SessionID() string {
	return c.sessionID
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Exhausted reports whether the reconnect budget has been spent.
func (c *Client) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// Connect begins the handshake. A connect already in progress or an
// open connection makes this a no-op; a pending reconnect timer is
// cancelled in favor of connecting right away.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateOpen || c.state == StateConnecting {
		return
	}

	c.startConnectLocked()
}

// startConnectLocked transitions to Connecting and dials off-lock.
func (c *Client) startConnectLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.exhausted = false
	c.state = StateConnecting

	go c.dial()
}

func (c *Client) dial() {
	header := http.Header{}
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}

	conn, _, err := c.cfg.Dialer.Dial(c.cfg.URL, header)

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnectと競合した。確立済みなら破棄する
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		log.Printf("Failed to create WebSocket connection: %v", err)
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	waiters := c.ready
	c.ready = nil
	c.mu.Unlock()

	log.Println("🔌 WebSocket connected")

	for _, ch := range waiters {
		ch <- nil
	}

	go c.readLoop(conn)
}

// readLoop receives frames until the transport fails, then hands the
// close over to the reconnect policy.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.dispatch(data)
	}

	conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		// 手動切断済み、または別コネクションに移行済み
		return
	}
	c.conn = nil
	log.Println("🔌 WebSocket disconnected")
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked applies the linear backoff policy: retry
// after attempt × BaseDelay until MaxAttempts retries have failed, then
// go terminal and reject any pending ready-waiters.
func (c *Client) scheduleReconnectLocked() {
	if c.attempts >= c.cfg.MaxAttempts {
		log.Println("Max reconnection attempts reached")
		c.state = StateDisconnected
		c.exhausted = true
		c.rejectWaitersLocked(ErrRetryExhausted)
		return
	}

	c.attempts++
	delay := time.Duration(c.attempts) * c.cfg.BaseDelay
	log.Printf("Attempting to reconnect (%d/%d)...", c.attempts, c.cfg.MaxAttempts)

	c.state = StateClosed
	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateClosed {
			return
		}
		c.startConnectLocked()
	})
}

// Disconnect closes the current connection, cancels any pending
// reconnect and resets the attempt counter. Safe to call repeatedly.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.attempts = 0
	c.exhausted = false
	c.state = StateDisconnected
	waiters := c.ready
	c.ready = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- ErrNotConnected
	}
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) rejectWaitersLocked(err error) {
	waiters := c.ready
	c.ready = nil
	for _, ch := range waiters {
		ch <- err
	}
}

// WhenReady returns a channel that yields nil once the connection is
// open (immediately if it already is) and an error if the client is
// idle or reconnect attempts run out first.
func (c *Client) WhenReady() <-chan error {
	ch := make(chan error, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateOpen:
		ch <- nil
	case StateConnecting, StateClosed:
		c.ready = append(c.ready, ch)
	default:
		if c.exhausted {
			ch <- ErrRetryExhausted
		} else {
			ch <- ErrNotConnected
		}
	}

	return ch
}

// Send marshals and writes one envelope. It succeeds only while the
// connection is open; any other state returns false so callers can fall
// back to local-only behavior.
func (c *Client) Send(v any) bool {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		log.Println("WebSocket not connected")
		return false
	}

	c.wmu.Lock()
	err := conn.WriteJSON(v)
	c.wmu.Unlock()
	if err != nil {
		log.Printf("WebSocket send error: %v", err)
		return false
	}
	return true
}

// Subscribe registers a handler for one envelope type. model.TypeAll
// receives every envelope in addition to the type-specific handlers.
func (c *Client) Subscribe(msgType string, fn Handler) *Subscription {
	sub := &Subscription{msgType: msgType, fn: fn}

	c.lmu.Lock()
	defer c.lmu.Unlock()
	set := c.listeners[msgType]
	if set == nil {
		set = make(map[*Subscription]struct{})
		c.listeners[msgType] = set
	}
	set[sub] = struct{}{}

	return sub
}

// Unsubscribe removes a previously registered handler.
func (c *Client) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	c.lmu.Lock()
	defer c.lmu.Unlock()
	set := c.listeners[sub.msgType]
	if set == nil {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(c.listeners, sub.msgType)
	}
}

// dispatch parses one inbound frame and notifies the wildcard set
// first, then the type-specific set, isolating handler panics so one
// broken listener never starves the rest.
func (c *Client) dispatch(data []byte) {
	env, err := model.ParseEnvelope(data)
	if err != nil {
		log.Printf("Error parsing WebSocket message: %v", err)
		return
	}

	c.notify(model.TypeAll, env)
	if env.Type != "" {
		c.notify(env.Type, env)
	}
}

func (c *Client) notify(msgType string, env model.Envelope) {
	c.lmu.RLock()
	subs := make([]*Subscription, 0, len(c.listeners[msgType]))
	for sub := range c.listeners[msgType] {
		subs = append(subs, sub)
	}
	c.lmu.RUnlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("WebSocket listener error: %v", r)
				}
			}()
			sub.fn(env)
		}()
	}
}

// SendComment publishes a live comment for the relay to synthesize and
// broadcast.
func (c *Client) SendComment(user, message string) bool {
	return c.Send(model.CommentPayload{
		Type:      model.TypeComment,
		User:      user,
		Message:   message,
		Timestamp: model.ISOTime(time.Now()),
	})
}

// Ping keeps the connection alive.
func (c *Client) Ping() bool {
	return c.Send(map[string]string{"type": model.TypePing})
}

// PublishUnread raises the unread badge on every session. The session
// id lets receivers suppress the audible cue for their own echo.
func (c *Client) PublishUnread(user string) bool {
	return c.Send(model.UnreadEvent{
		Type:      model.TypeUnreadMessage,
		User:      user,
		SessionID: c.sessionID,
		Timestamp: model.ISOTime(time.Now()),
	})
}

// PublishClearUnread clears the unread badge on every session.
func (c *Client) PublishClearUnread() bool {
	return c.Send(model.UnreadEvent{
		Type:      model.TypeClearUnreadMessage,
		SessionID: c.sessionID,
		Timestamp: model.ISOTime(time.Now()),
	})
}
