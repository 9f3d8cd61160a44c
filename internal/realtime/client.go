package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive/backend/domain"
)

// ConnConfig tunes the websocket pumps.
type ConnConfig struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	return c
}

// Client is one live websocket connection with its bound identity. The bound
// identity never changes for the connection's lifetime; reconnecting yields a
// fresh Client with empty room membership.
type Client struct {
	id       string
	identity domain.Identity

	// joined tracks room membership for O(rooms-of-connection) cleanup on
	// disconnect. Guarded by the hub's lock, never touched elsewhere.
	joined map[string]struct{}

	send chan ServerMessage
	done chan struct{}
	once sync.Once
}

// NewClient mints a connection with a fresh id.
func NewClient(identity domain.Identity, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Client{
		id:       uuid.NewString(),
		identity: identity,
		joined:   make(map[string]struct{}),
		send:     make(chan ServerMessage, sendBuffer),
		done:     make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Identity returns the user identity bound at admission.
func (c *Client) Identity() domain.Identity { return c.identity }

// deliver pushes a message onto the send buffer without blocking. It reports
// false when the client is gone or too slow to keep up; the message is then
// lost, which is the at-most-once contract.
func (c *Client) deliver(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// shutdown stops the write pump. Safe to call multiple times.
func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump consumes frames from the socket until the peer goes away, then
// evicts the connection. Must run on its own goroutine per connection.
func (c *Client) ReadPump(conn *websocket.Conn, hub *Hub, router *Router, cfg ConnConfig, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	defer func() {
		hub.Evict(c)
		c.shutdown()
		conn.Close()
	}()

	conn.SetReadLimit(cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed",
					zap.String("connection_id", c.id), zap.Error(err))
			}
			return
		}

		msg, err := DecodeClientMessage(data)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownMessageType) {
				logger.Warn("unknown realtime message kind",
					zap.String("connection_id", c.id))
			} else {
				logger.Warn("malformed realtime message",
					zap.String("connection_id", c.id), zap.Error(err))
			}
			continue
		}
		c.dispatch(msg, hub, router)
	}
}

// dispatch applies one inbound message. Mutation notifications only trigger
// broadcasts; the REST boundary has already committed the mutation itself.
func (c *Client) dispatch(msg ClientMessage, hub *Hub, router *Router) {
	switch m := msg.(type) {
	case JoinTaskMessage:
		hub.Join(c, m.TaskID)
	case LeaveTaskMessage:
		hub.Leave(c, m.TaskID)
	case TaskUpdatedMessage:
		router.Route(Event{
			Kind:   EventTaskUpdated,
			TaskID: m.TaskID,
			Patch:  m.Patch,
			Actor:  c.identity,
		}, c.id)
	case TaskCreatedMessage:
		if m.Task == nil {
			return
		}
		router.Route(Event{
			Kind:   EventTaskCreated,
			TaskID: m.Task.ID,
			Task:   m.Task,
			Actor:  c.identity,
		}, c.id)
	case TaskDeletedMessage:
		router.Route(Event{
			Kind:   EventTaskDeleted,
			TaskID: m.TaskID,
			Actor:  c.identity,
		}, c.id)
	}
}

// WritePump drains the send buffer onto the socket and keeps the connection
// alive with periodic pings. Must run on its own goroutine per connection.
func (c *Client) WritePump(conn *websocket.Conn, cfg ConnConfig, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			payload, err := EncodeServerMessage(msg)
			if err != nil {
				logger.Error("failed to encode server message", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
