package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"chatty/internal/domain/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const maxMessageSize = 64 << 10

var (
	errClientClosed   = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
	errUnverified     = errors.New("connection has no verified session")
)

// privateEvents are only delivered to connections with a verified session.
var privateEvents = map[string]bool{
	service.EventNewMessage: true,
}

// client is one websocket connection. It satisfies service.Connection.
type client struct {
	id       string
	userID   string
	verified bool
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, userID string, verified bool, buffer int, logger *slog.Logger) *client {
	id := uuid.NewString()

	return &client{
		id:       id,
		userID:   userID,
		verified: verified,
		conn:     conn,
		send:     make(chan []byte, buffer),
		logger:   logger.With(slog.String("connID", id), slog.String("userID", userID), slog.Bool("verified", verified)),
	}
}

// ID returns the connection id.
func (c *client) ID() string {
	return c.id
}

// Emit queues an event. A client that cannot keep up is disconnected.
func (c *client) Emit(event string, payload any) error {
	if privateEvents[event] && !c.verified {
		return errUnverified
	}

	msg, err := encodeFrame(event, payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s frame", event)
	}

	return c.enqueue(msg)
}

// enqueue hands an encoded frame to the write pump without blocking.
func (c *client) enqueue(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Dropping slow websocket client")
		c.closeLocked()

		return errSendBufferFull
	}
}

// close stops the write pump, which then closes the socket.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
}

func (c *client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump owns all writes to the socket.
func (c *client) writePump(writeTimeout, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("Websocket write failed", slog.Any("error", err))

				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump delivers inbound frames to handle until the peer goes away.
func (c *client) readPump(pongWait time.Duration, handle func(*client, Frame)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Debug("Websocket closed unexpectedly", slog.Any("error", err))
			}

			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			c.logger.Debug("Ignoring malformed frame")

			continue
		}
		handle(c, frame)
	}
}
