// Package gateway is the websocket transport of the collaboration core:
// it upgrades connections, authenticates them, and dispatches wire events
// into the runtime components.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"collab-live/domain/event"
	"collab-live/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// client is one websocket session. Its send channel decouples fan-out from
// the socket: Consume enqueues, writePump drains. A full send buffer drops
// the event rather than stalling the broadcaster.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, bufferSize int, log *slog.Logger) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		log:  log,
	}
}

// Consume implements contract.EventSink. It never blocks past the context
// deadline and returns an error when the session is gone or the buffer is
// full; the caller treats both as a lost event.
func (c *client) Consume(ctx context.Context, e event.ServerEvent) (err error) {
	frame, encErr := encodeServerEvent(e)
	if encErr != nil {
		return encErr
	}

	// The send channel may be closed between the flag check and the send
	// when teardown races a broadcast; recover turns that into a lost event.
	defer func() {
		if r := recover(); r != nil {
			err = errors.ErrConnectionNotFound
		}
	}()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrConnectionNotFound
	}
	c.mu.Unlock()

	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close marks the session dead and closes the send channel exactly once.
// writePump exits on the closed channel and tears down the socket.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// setupRead arms the read deadline and keeps it fresh on every pong.
func (c *client) setupRead(readLimit int64) {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with periodic pings. It is the only writer of the
// socket; everything else goes through the send channel.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed, closing session", "connection", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit pushes one event directly to this session, bounded by the timeout.
func (c *client) emit(ctx context.Context, e event.ServerEvent, timeout time.Duration) {
	emitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Consume(emitCtx, e); err != nil {
		c.log.Debug("Direct emit dropped", "connection", c.id, "event", e.EventName(), "error", err)
	}
}
