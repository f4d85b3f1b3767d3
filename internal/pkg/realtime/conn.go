package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

// conn is a websocket Subscriber. Reads happen on one goroutine; writes are funnelled
// through send so the socket has a single writer.
type conn struct {
	ws     *websocket.Conn
	userID int64
	opts   ServerOptions

	send   chan []byte
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func newConn(ws *websocket.Conn, userID int64, opts ServerOptions) *conn {
	return &conn{
		ws:     ws,
		userID: userID,
		opts:   opts,
		send:   make(chan []byte, opts.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *conn) Deliver(env Envelope) bool {
	if c.closed.Load() {
		return false
	}

	msg, err := json.Marshal(env)
	if err != nil {
		return false
	}

	select {
	case <-c.done:
		return false
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)

		deadline := time.Now().Add(c.opts.WriteWait)
		//nolint:errcheck // peer may already be gone
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.ws.Close()
	})
	return err
}

// readLoop decodes client frames and hands requests to the hub until the peer goes away.
func (c *conn) readLoop(ctx context.Context, hub *Hub) error {
	c.ws.SetReadLimit(c.opts.ReadLimit)
	//nolint:errcheck // a failed deadline surfaces on the next read
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				return fmt.Errorf("realtime: read: %w", err)
			}
			return nil
		}

		var req Envelope
		if err := json.Unmarshal(message, &req); err != nil {
			slog.DebugContext(ctx, "ignoring malformed realtime frame", "user_id", c.userID, "error", err)
			continue
		}

		hub.dispatchRequest(ctx, c.userID, req)
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings.
func (c *conn) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case msg := <-c.send:
			//nolint:errcheck // a failed deadline surfaces on the write
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("realtime: write: %w", err)
			}
		case <-ticker.C:
			//nolint:errcheck // a failed deadline surfaces on the write
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("realtime: ping: %w", err)
			}
		}
	}
}
